package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"ripple_server/routes"
	"ripple_server/services"
	"ripple_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load a local .env when present; real deployments set the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	identityService := services.NewIdentityService(os.Getenv("JWT_SECRET"))
	cacheService := services.NewCacheService()
	userService := &services.UserService{Dynamo: dynamoService}
	notificationService := &services.NotificationService{Dynamo: dynamoService}
	chatService := &services.ChatService{
		Dynamo:        dynamoService,
		Users:         userService,
		Notifications: notificationService,
	}
	savedPostService := &services.SavedPostService{
		Dynamo: dynamoService,
		Users:  userService,
		Cache:  cacheService,
	}
	feedService := &services.FeedService{
		Dynamo:     dynamoService,
		Users:      userService,
		SavedPosts: savedPostService,
		Cache:      cacheService,
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the Socket.IO server and its room registry
	registry := socket.NewRoomRegistry()
	socketServer := socket.NewSocketServer(registry)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket.IO server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Ripple")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Mount the realtime endpoint
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterChatRoutes(r, chatService, identityService)
	routes.RegisterFeedRoutes(r, feedService, identityService)
	routes.RegisterSavedPostRoutes(r, savedPostService, identityService)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
