package main

import (
	"context"
	"log"
	"time"

	"agentmesh/infrastructure/config"
	"agentmesh/infrastructure/di"
	"agentmesh/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
)

// Lambda lifecycle state, built once per cold start
var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.SessionCoordinator,
		container.ContextLog,
		container.GraphStore,
		cfg,
		container.Logger,
	)

	handler, err := router.Setup()
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	// The API Gateway JWT authorizer already validated the token; pass the
	// agent identity through as pre-authorized headers.
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if authorizer := req.RequestContext.Authorizer; authorizer != nil && authorizer.JWT != nil {
		if sub, ok := authorizer.JWT.Claims["sub"]; ok {
			req.Headers["X-API-Gateway-Authorized"] = "true"
			req.Headers["X-Agent-ID"] = sub
		}
		if tenant, ok := authorizer.JWT.Claims["tenant"]; ok {
			req.Headers["X-Tenant"] = tenant
		}
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
