package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/docqa/internal/config"
	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/core/usecase"
	"github.com/kirillkom/docqa/internal/infrastructure/chunking"
	"github.com/kirillkom/docqa/internal/infrastructure/document"
	"github.com/kirillkom/docqa/internal/infrastructure/extractor"
	"github.com/kirillkom/docqa/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/docqa/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/docqa/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/docqa/internal/infrastructure/fetch"
	"github.com/kirillkom/docqa/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/docqa/internal/infrastructure/llm/openai"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
	"github.com/kirillkom/docqa/internal/infrastructure/vector/memory"
	"github.com/kirillkom/docqa/internal/infrastructure/vector/qdrant"
)

// Pipeline is the in-process question answering stack shared by the API,
// the worker, the CLI and the MCP server.
type Pipeline struct {
	Loader    ports.DocumentLoader
	Extractor ports.TextExtractor
	Answerer  ports.QuestionAnswerer
}

// NewPipeline wires capabilities from cfg. observer may be nil.
func NewPipeline(cfg config.Config, observer ports.PipelineObserver) (*Pipeline, error) {
	strategy := domain.ChunkStrategy(cfg.ChunkStrategy)
	splitter, err := chunking.NewSplitter(strategy, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	modelExecutor := resilience.NewExecutor(resilience.ModelConfig(cfg.ModelRetryMaxAttempts, cfg.ModelBreakerEnabled))

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaQAModel, cfg.OllamaEmbedModel, modelExecutor)

	var embedder ports.Embedder
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case "openai":
		embedder = openai.NewEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel, modelExecutor)
	case "ollama", "":
		embedder = ollama.NewEmbedder(ollamaClient)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "new pipeline", fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider))
	}

	metric := domain.SimilarityMetric(cfg.SimilarityMetric)
	var indexes ports.IndexFactory
	switch strings.ToLower(cfg.VectorBackend) {
	case "qdrant":
		indexes = qdrant.Factory{
			BaseURL:          cfg.QdrantURL,
			CollectionPrefix: cfg.QdrantCollectionPrefix,
			Metric:           metric,
			Embedder:         embedder,
		}
	case "memory", "":
		indexes = memory.Factory{Embedder: embedder, Metric: metric}
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "new pipeline", fmt.Errorf("unknown vector backend %q", cfg.VectorBackend))
	}

	answerer := usecase.NewQueryUseCase(
		splitter,
		indexes,
		usecase.NewRetriever(embedder),
		usecase.NewAnswerSynthesizer(ollama.NewExtractor(ollamaClient), cfg.ConfidenceFloor),
		usecase.QueryOptions{
			TopK:        cfg.RAGTopK,
			TokenBudget: cfg.RAGTokenBudget,
			Concurrency: cfg.AnswerConcurrency,
			Observer:    observer,
		},
	)

	fallback := plaintext.NewExtractor()
	router := extractor.NewRouter(map[extractor.Format]ports.TextExtractor{
		extractor.FormatPDF:   pdf.NewExtractor(),
		extractor.FormatXLSX:  xlsx.NewExtractor(),
		extractor.FormatPlain: fallback,
	}, fallback)

	fetcher := fetch.NewHTTPFetcher(
		time.Duration(cfg.DownloadTimeoutSeconds)*time.Second,
		cfg.DownloadMaxBytes,
		resilience.NewExecutor(resilience.DefaultConfig()),
	)

	return &Pipeline{
		Loader:    document.NewLoader(fetcher, router),
		Extractor: router,
		Answerer:  answerer,
	}, nil
}
