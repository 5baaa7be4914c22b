package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gosupply/config"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/database"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gosupply/internal/api/area"
	"gosupply/internal/api/contagem"
	"gosupply/internal/api/fornecedor"
	"gosupply/internal/api/router"
	"gosupply/internal/api/user"
	"gosupply/internal/repository/arearepo"
	"gosupply/internal/repository/draftrepo"
	"gosupply/internal/repository/estoquerepo"
	"gosupply/internal/repository/fornecedorrepo"
	"gosupply/internal/repository/userrepo"
	"gosupply/internal/service/contagemservice"
	"gosupply/internal/service/fornecedorservice"
	"gosupply/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	stdlog.Println("⚡ Inicializando serviço GoSupply...")

	// Carregar variáveis de ambiente (.env). Se o arquivo não existir,
	// seguimos com as variáveis do ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis), meio primário dos rascunhos de contagem.
	// A conexão é preguiçosa; o Ping aqui é só diagnóstico, o serviço
	// sobe mesmo com o Redis fora do ar (os rascunhos caem no fallback).
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warn("Redis indisponível na inicialização. Rascunhos usarão o fallback em memória.", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		log.Info("Conexão Redis estabelecida.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	estoqueRepo := estoquerepo.NewEstoqueRepository(db, cfg.DBTimeout, log)
	areaRepo := arearepo.NewAreaRepository(db, cfg.DBTimeout, log)
	fornecedorRepo := fornecedorrepo.NewFornecedorRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	draftStore := draftrepo.NewStore(cacheClient, cfg.DraftFallbackCapacity, cfg.DraftTTL, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviço de Tokens (JWT)
	jwtExpiry := time.Hour * time.Duration(cfg.JWTExpiryHours)
	tokenSvc := token.NewService(cfg.JWTSecretKey, jwtExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// C. Serviços (Camada de Lógica de Negócio)
	contagemSvc := contagemservice.NewService(estoqueRepo, estoqueRepo, draftStore, cfg.DraftDebounce, log)
	fornecedorSvc := fornecedorservice.NewService(fornecedorRepo, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	log.Debug("Serviços inicializados.", nil)

	// D. Handlers (Camada de Apresentação)
	contagemHandler := contagem.NewHandler(contagemSvc, log)
	areaHandler := area.NewHandler(areaRepo, log)
	fornecedorHandler := fornecedor.NewHandler(fornecedorSvc, log)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Dependencies{
		UserHandler:       userHandler,
		AreaHandler:       areaHandler,
		ContagemHandler:   contagemHandler,
		FornecedorHandler: fornecedorHandler,
		TokenService:      tokenSvc,
		CacheClient:       cacheClient,
		RateLimitMax:      cfg.RateLimitMaxRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoSupply ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	// Timeout para desligamento (usa o contexto)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
