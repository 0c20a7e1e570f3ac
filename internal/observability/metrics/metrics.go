package metrics

const namespace = "docqa"
