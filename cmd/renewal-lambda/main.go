package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"schoollicense.app/renewal/internal/app"
	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/renewal"
	"schoollicense.app/renewal/internal/reporter"
	"schoollicense.app/renewal/internal/version"
)

type processor interface {
	Process(ctx context.Context, t renewal.Trigger) renewal.Outcome
}

type handler struct {
	svc   processor
	flush func()
}

func (h *handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if h.flush != nil {
		defer h.flush()
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, renewal.Response{Error: "invalid base64 body"}), nil
		}
		body = decoded
	}

	origin, signature := renewal.ResolveOrigin(requestHeaders(req))
	logger.Info("Renewal trigger received", map[string]interface{}{
		"origin":       origin.String(),
		"request_id":   req.RequestContext.RequestID,
		"payload_size": len(body),
	})

	out := h.svc.Process(ctx, renewal.Trigger{
		Origin:    origin,
		Signature: signature,
		Body:      body,
	})
	return respond(out.Status, out.Body), nil
}

// requestHeaders canonicalizes API Gateway's header maps so lookups are
// case-insensitive.
func requestHeaders(req events.APIGatewayProxyRequest) http.Header {
	h := http.Header{}
	for k, values := range req.MultiValueHeaders {
		for _, v := range values {
			h.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if h.Get(k) == "" {
			h.Set(k, v)
		}
	}
	return h
}

func respond(status int, body renewal.Response) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"success":false,"error":"Internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("Failed to load .env", map[string]interface{}{"error": err.Error()})
	}
	cfg, err := config.New()
	if err != nil {
		logger.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		panic(err)
	}

	flush, err := reporter.Init(cfg.SentryDSN, cfg.Env, version.Version)
	if err != nil {
		logger.Error("Failed to initialize Sentry", map[string]interface{}{"error": err.Error()})
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to start", map[string]interface{}{"error": err.Error()})
		panic(err)
	}

	h := &handler{svc: a.Service, flush: flush}
	lambda.Start(h.Handle)
}
