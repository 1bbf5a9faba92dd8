package main

import (
	"log"
	"time"

	config "github.com/anjiri1684/peer_certify/configs"
	"github.com/anjiri1684/peer_certify/database"
	"github.com/anjiri1684/peer_certify/handlers"
	"github.com/anjiri1684/peer_certify/ledger"
	"github.com/anjiri1684/peer_certify/notifications"
	"github.com/anjiri1684/peer_certify/routes"
	"github.com/anjiri1684/peer_certify/services"
	"github.com/anjiri1684/peer_certify/signing"
	"github.com/anjiri1684/peer_certify/store"
	"github.com/anjiri1684/peer_certify/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	node := newNodeClient()
	indexer := newIndexerClient()
	signers, derivedIssuer := newSignerRegistry()

	registry := store.New(database.DB)
	if err := registry.Load(); err != nil {
		log.Printf("🔥 Failed to warm the certificate registry: %v", err)
	}
	services.SeedDemoCertificates(registry)

	issuerAddress := config.Config("ISSUER_ADDRESS")
	if issuerAddress == "" {
		issuerAddress = derivedIssuer
	}
	certificateService := services.NewCertificateService(node, indexer, signers, registry, issuerAddress)

	monitor := services.NewNetworkMonitor(node)
	monitor.Start()
	defer monitor.Stop()

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "PeerCertify",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to PeerCertify API",
		})
	})

	routes.AuthRoutes(app)
	routes.CertificateRoutes(app, handlers.NewCertificateHandler(certificateService))
	routes.PublicRoutes(app, handlers.NewNetworkHandler(monitor))

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigDefault("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	err := app.Listen(":" + port)
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

func newNodeClient() ledger.NodeClient {
	nodeURL := config.ConfigDefault("ALGOD_URL", "https://testnet-api.algonode.cloud")
	client, err := ledger.NewAlgodClient(nodeURL, config.Config("ALGOD_TOKEN"), ledgerTimeout())
	if err != nil {
		log.Printf("⚠️ Ledger node client unavailable, running in demo mode: %v", err)
		return nil
	}
	return client
}

func newIndexerClient() ledger.IndexerClient {
	indexerURL := config.ConfigDefault("INDEXER_URL", "https://testnet-idx.algonode.cloud")
	client, err := ledger.NewIndexer(indexerURL, config.Config("INDEXER_TOKEN"), ledgerTimeout())
	if err != nil {
		log.Printf("⚠️ Index service client unavailable, falling back to the node: %v", err)
		return nil
	}
	return client
}

func newSignerRegistry() (*signing.Registry, string) {
	kmdSigner := signing.NewKMDSigner(
		config.Config("KMD_URL"),
		config.Config("KMD_TOKEN"),
		config.Config("KMD_WALLET"),
		config.Config("KMD_PASSWORD"),
	)

	mnemonicSigner, err := signing.NewMnemonicSigner(config.Config("ISSUER_MNEMONIC"))
	if err != nil {
		log.Fatalf("🔥 Invalid ISSUER_MNEMONIC: %v", err)
	}

	return signing.NewRegistry(kmdSigner, mnemonicSigner), mnemonicSigner.Address()
}

func ledgerTimeout() time.Duration {
	timeout, err := time.ParseDuration(config.ConfigDefault("LEDGER_TIMEOUT", "10s"))
	if err != nil {
		log.Printf("⚠️ Invalid LEDGER_TIMEOUT, using default: %v", err)
		return ledger.DefaultTimeout
	}
	return timeout
}
