package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/asaadmansour/leastud/internal/config"
	"github.com/asaadmansour/leastud/internal/handler"
	"github.com/asaadmansour/leastud/internal/middleware"
	sqliteRepo "github.com/asaadmansour/leastud/internal/repository/sqlite"
	"github.com/asaadmansour/leastud/internal/seed"
	"github.com/asaadmansour/leastud/internal/service"
	"github.com/asaadmansour/leastud/internal/service/session"
	ws "github.com/asaadmansour/leastud/internal/websocket"
	"github.com/asaadmansour/leastud/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к SQLite
	db, err := database.NewSQLiteDB(cfg.Storage.Path)
	if err != nil {
		log.Printf("Failed to open database: %v", err)
		os.Exit(1)
	}

	// Инициализируем репозиторий снимка (миграция схемы внутри)
	snapshotRepo, err := sqliteRepo.NewSnapshotRepo(db)
	if err != nil {
		log.Printf("Failed to initialize SnapshotRepo: %v", err)
		os.Exit(1)
	}

	// Загружаем встроенный каталог
	seedLoader := seed.NewLoader(cfg.Seed.Path)
	if err := seedLoader.Load(); err != nil {
		log.Printf("Failed to load seed catalog: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	contentService := service.NewContentService(seedLoader)
	attemptService := service.NewAttemptService()
	stateService := service.NewStateService(contentService, attemptService, snapshotRepo)

	// Восстанавливаем состояние и выполняем слияние встроенного каталога
	if err := stateService.Restore(); err != nil {
		log.Printf("Failed to restore state: %v", err)
		os.Exit(1)
	}

	// Конфигурация таймеров викторины
	sessionConfig := session.DefaultConfig()
	sessionConfig.SecondsPerQuestion = cfg.Quiz.SecondsPerQuestion
	sessionConfig.GraceDelay = time.Duration(cfg.Quiz.GraceDelaySeconds) * time.Second

	sessionManager := session.NewManager(sessionConfig, attemptService)

	// Инициализация WebSocket Hub
	wsHub := ws.NewHub()

	// Инициализируем обработчики
	subjectHandler := handler.NewSubjectHandler(contentService)
	examHandler := handler.NewExamHandler(contentService)
	attemptHandler := handler.NewAttemptHandler(attemptService, contentService)
	sessionHandler := handler.NewSessionHandler(sessionManager, contentService, attemptService, wsHub)
	wsHandler := handler.NewWSHandler(sessionManager, wsHub)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS: фронтенд разработки ходит с других портов localhost
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Проверка живости
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Импорт экзамена из JSON-документа
		api.POST("/import", examHandler.ImportExam)

		// Предметы
		subjects := api.Group("/subjects")
		{
			subjects.GET("", subjectHandler.ListSubjects)
			subjects.POST("", subjectHandler.CreateSubject)

			// Группа маршрутов, требующих subjectID
			subjectWithID := subjects.Group("/:subjectID")
			subjectWithID.Use(middleware.ExtractStringParam("subjectID", "subjectID")) // Применяем middleware
			{
				subjectWithID.GET("", subjectHandler.GetSubject)
				subjectWithID.PUT("", subjectHandler.UpdateSubject)
				subjectWithID.DELETE("", subjectHandler.DeleteSubject)

				// Экзамены предмета
				exams := subjectWithID.Group("/exams")
				{
					exams.POST("", examHandler.CreateExam)

					examWithID := exams.Group("/:examID")
					examWithID.Use(middleware.ExtractStringParam("examID", "examID"))
					{
						examWithID.GET("", examHandler.GetExam)
						examWithID.PUT("", examHandler.UpdateExam)
						examWithID.DELETE("", examHandler.DeleteExam)

						// Вопросы экзамена
						questions := examWithID.Group("/questions")
						{
							questions.POST("", examHandler.AddQuestion)

							questionWithID := questions.Group("/:questionID")
							questionWithID.Use(middleware.ExtractStringParam("questionID", "questionID"))
							{
								questionWithID.PUT("", examHandler.UpdateQuestion)
								questionWithID.DELETE("", examHandler.DeleteQuestion)
							}
						}
					}
				}
			}
		}

		// Журнал попыток
		attempts := api.Group("/attempts")
		{
			attempts.GET("", attemptHandler.ListAttempts)
			attempts.GET("/export", attemptHandler.ExportAttempts)

			attemptWithID := attempts.Group("/:attemptID")
			attemptWithID.Use(middleware.ExtractStringParam("attemptID", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.DELETE("", attemptHandler.DeleteAttempt)
			}
		}

		// Сессии викторины
		sessions := api.Group("/quiz/sessions")
		{
			sessions.POST("", sessionHandler.StartSession)

			sessionWithID := sessions.Group("/:sessionID")
			sessionWithID.Use(middleware.ExtractStringParam("sessionID", "sessionID"))
			{
				sessionWithID.GET("", sessionHandler.GetSession)
				sessionWithID.POST("/begin", sessionHandler.BeginSession)
				sessionWithID.POST("/answer", sessionHandler.AnswerQuestion)
				sessionWithID.POST("/next", sessionHandler.NextQuestion)
				sessionWithID.POST("/previous", sessionHandler.PreviousQuestion)
				sessionWithID.POST("/submit", sessionHandler.SubmitSession)
				sessionWithID.POST("/exit", sessionHandler.ExitSession)
				sessionWithID.POST("/visibility", sessionHandler.SetVisibility)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws/quiz/:sessionID", wsHandler.ServeQuizWS)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM завершаем работу
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Финальная запись состояния перед выходом
	if err := stateService.Save(); err != nil {
		log.Printf("Error saving state on shutdown: %v", err)
	}

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	// Закрываем базу после финальной записи состояния
	if sqlDB, err := database.GetSQLDB(db); err != nil {
		log.Printf("Error getting sql.DB for close: %v", err)
	} else if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited properly")
}
