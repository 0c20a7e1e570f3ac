package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/core/usecase"
)

const answerQuestionsTool = "answer_questions"

// Server exposes the question answering pipeline as MCP tools.
type Server struct {
	loader   ports.DocumentLoader
	answerer ports.QuestionAnswerer
	mcp      *server.MCPServer
}

func NewServer(loader ports.DocumentLoader, answerer ports.QuestionAnswerer, version string) *Server {
	s := &Server{
		loader:   loader,
		answerer: answerer,
		mcp: server.NewMCPServer(
			"docqa",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(mcp.NewTool(answerQuestionsTool,
		mcp.WithDescription("Answer questions about one document. Provide document_text or document_url. "+
			"Returns one JSON record per question with answer, confidence and rationale."),
		mcp.WithString("document_text", mcp.Description("Plain text of the document.")),
		mcp.WithString("document_url", mcp.Description("http(s) URL of a PDF, XLSX or text document.")),
		mcp.WithArray("questions",
			mcp.Required(),
			mcp.Description("Questions to answer, in order."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.answerQuestions)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) answerQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("document_text", "")
	url := req.GetString("document_url", "")

	questions, err := usecase.ValidateRequest(url, text, req.GetStringSlice("questions", nil))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	documentText, err := s.loader.Load(ctx, domain.DocumentSource{URL: url, Text: text})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load document: %v", err)), nil
	}

	records, err := s.answerer.Run(ctx, documentText, questions)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer questions: %v", err)), nil
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	slog.Info("mcp_tool_call", "tool", answerQuestionsTool, "questions", len(questions))
	return mcp.NewToolResultText(string(payload)), nil
}
