package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/solutionshark/backend/internal/application/services"
	"github.com/solutionshark/backend/internal/bootstrap"
	"github.com/solutionshark/backend/internal/infrastructure/database"
	"github.com/solutionshark/backend/internal/interfaces/middleware"
	"github.com/solutionshark/backend/internal/interfaces/rest"
)

func main() {
	// Load .env; the binary may run from the repo root or cmd/server
	paths := []string{".env", "../.env", "../../.env"}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded .env from %s", p)
			break
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	if err := bootstrap.SeedSampleData(db); err != nil {
		log.Printf("⚠️  Warning: sample data seed failed: %v", err)
	}

	svcMgr := services.NewServiceManager(db)
	log.Println("🔧 Service manager initialized")

	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.NoMethod(rest.MethodNotAllowed)
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Debug/pprof endpoints for goroutine debugging
	// Goroutine stacks: http://localhost:3001/debug/pprof/goroutine?debug=2
	debug := router.Group("/debug/pprof")
	{
		debug.GET("/goroutine", gin.WrapH(http.DefaultServeMux))
		debug.GET("/heap", gin.WrapH(http.DefaultServeMux))
		debug.GET("/threadcreate", gin.WrapH(http.DefaultServeMux))
		debug.GET("/block", gin.WrapH(http.DefaultServeMux))
		debug.GET("/mutex", gin.WrapH(http.DefaultServeMux))
		debug.GET("/profile", gin.WrapH(http.DefaultServeMux))
		debug.GET("/trace", gin.WrapH(http.DefaultServeMux))
	}

	solutionHandler := rest.NewSolutionHandler(svcMgr.Solution)
	workflowHandler := rest.NewWorkflowHandler(svcMgr.Workflow)
	approvalHandler := rest.NewApprovalHandler(svcMgr.Approval)

	requireActor := middleware.RequireActor()

	// API routes. Reads are open; writes require an actor identity.
	api := router.Group("/api")
	{
		solutions := api.Group("/solutions")
		{
			solutions.GET("", solutionHandler.List)
			solutions.GET("/:id", solutionHandler.Get)
			solutions.GET("/:id/history", solutionHandler.History)
			solutions.POST("", requireActor, solutionHandler.Create)
			solutions.PUT("/:id", requireActor, solutionHandler.Update)
			solutions.DELETE("/:id", requireActor, solutionHandler.Delete)
		}

		workflows := api.Group("/workflows")
		{
			workflows.GET("", workflowHandler.List)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.POST("", requireActor, workflowHandler.Create)
			workflows.PUT("/:id", requireActor, workflowHandler.Update)
			workflows.DELETE("/:id", requireActor, workflowHandler.Delete)
			workflows.POST("/:id/steps/:stepId/move", requireActor, workflowHandler.MoveStep)
		}

		approvals := api.Group("/approvals")
		{
			approvals.GET("", approvalHandler.List)
			approvals.GET("/matching", approvalHandler.MatchingWorkflows)
			approvals.GET("/:id", approvalHandler.Get)
			approvals.POST("", requireActor, approvalHandler.Submit)
			approvals.PUT("/:id", requireActor, approvalHandler.Process)
		}
	}

	// Start background stage reconciliation
	if err := svcMgr.StartReconciler(); err != nil {
		log.Fatalf("Failed to start stage reconciler: %v", err)
	}

	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 SolutionShark Backend Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:         http://localhost:%s", port)
	log.Printf("📄 Solutions API:  http://localhost:%s/api/solutions", port)
	log.Printf("🧩 Workflows API:  http://localhost:%s/api/workflows", port)
	log.Printf("📨 Approvals API:  http://localhost:%s/api/approvals", port)
	log.Printf("💚 Health check:   http://localhost:%s/health\n", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.StopReconciler()
	log.Println("🛑 Stage reconciler stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
