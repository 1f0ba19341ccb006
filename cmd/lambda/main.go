// Esita - AWS Lambda serverless handler
// Exposes the gateway's chat endpoint behind API Gateway.
//
// Environment variables:
//   ESITA_CONFIG_JSON - Full config JSON (alternative to config file)
//   GEMINI_API_KEY    - Gemini API key (overrides config)

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/esita/esita/pkg/config"
	"github.com/esita/esita/pkg/gateway"
	"github.com/esita/esita/pkg/logger"
)

var (
	gatewayHandler http.Handler
	initOnce       sync.Once
	initErr        error
)

func initialize() error {
	initOnce.Do(func() {
		initErr = doInit()
	})
	return initErr
}

func doInit() error {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Init(cfg.Log.Level)

	var replier gateway.Replier
	if cfg.Gateway.GeminiAPIKey != "" {
		g, err := gateway.NewGeminiReplier(context.Background(), cfg.Gateway.GeminiAPIKey, cfg.Gateway.Model)
		if err != nil {
			return fmt.Errorf("creating replier: %w", err)
		}
		replier = g
	}

	gatewayHandler = gateway.NewServer(cfg.Gateway, replier).Handler()

	logger.InfoCF("lambda", "Lambda initialized", map[string]interface{}{"model": cfg.Gateway.Model})
	return nil
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := initialize(); err != nil {
		logger.ErrorCF("lambda", "Init error", map[string]interface{}{"error": err.Error()})
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}

	method := request.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}
	path := request.Path
	if path == "" {
		path = "/"
	}

	req, err := http.NewRequestWithContext(ctx, method, path, strings.NewReader(request.Body))
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}
	for k, v := range request.Headers {
		req.Header.Set(k, v)
	}

	rec := &proxyResponse{status: http.StatusOK, header: make(http.Header)}
	gatewayHandler.ServeHTTP(rec, req)

	headers := make(map[string]string, len(rec.header))
	for k := range rec.header {
		headers[k] = rec.header.Get(k)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: rec.status,
		Headers:    headers,
		Body:       rec.body.String(),
	}, nil
}

// proxyResponse captures a handler's output for translation into an API
// Gateway proxy response.
type proxyResponse struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (r *proxyResponse) Header() http.Header { return r.header }

func (r *proxyResponse) WriteHeader(status int) { r.status = status }

func (r *proxyResponse) Write(p []byte) (int, error) { return r.body.Write(p) }

func main() {
	lambda.Start(handler)
}
