package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"circulation-backend/internal/config"
	infracache "circulation-backend/internal/infrastructure/cache"
	"circulation-backend/internal/infrastructure/database"
	"circulation-backend/pkg/cache"
	"circulation-backend/pkg/jwt"

	classificationrepo "circulation-backend/internal/domains/classification/repository"
	classificationservice "circulation-backend/internal/domains/classification/service"
	editionrepo "circulation-backend/internal/domains/edition/repository"
	editionservice "circulation-backend/internal/domains/edition/service"
	identifierhandler "circulation-backend/internal/domains/identifier/handler"
	identifierrepo "circulation-backend/internal/domains/identifier/repository"
	identifierservice "circulation-backend/internal/domains/identifier/service"
	poolhandler "circulation-backend/internal/domains/licensepool/handler"
	poolrepo "circulation-backend/internal/domains/licensepool/repository"
	poolservice "circulation-backend/internal/domains/licensepool/service"
	measurementrepo "circulation-backend/internal/domains/measurement/repository"
	measurementservice "circulation-backend/internal/domains/measurement/service"
	workhandler "circulation-backend/internal/domains/work/handler"
	workjob "circulation-backend/internal/domains/work/job"
	workrepo "circulation-backend/internal/domains/work/repository"
	workservice "circulation-backend/internal/domains/work/service"
)

// Container wires every layer of the application together. Both the API
// server and the worker build one; only what they reach differs.
type Container struct {
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	IdentifierRepo     identifierrepo.Repository
	EditionRepo        editionrepo.Repository
	LicensePoolRepo    poolrepo.Repository
	WorkRepo           workrepo.Repository
	ClassificationRepo classificationrepo.Repository
	MeasurementRepo    measurementrepo.Repository

	EquivalenceService   *identifierservice.EquivalenceService
	EditionPresentation  *editionservice.PresentationService
	AvailabilityService  *poolservice.AvailabilityService
	ClassifierService    *classificationservice.ClassifierService
	QualityService       *measurementservice.QualityService
	WorkPresentation     *workservice.PresentationService
	ConsolidationService *workservice.ConsolidationService

	IdentifierHandler  *identifierhandler.Handler
	LicensePoolHandler *poolhandler.Handler
	WorkHandler        *workhandler.Handler

	CalculateWorkJob           *workjob.CalculateWorkHandler
	ConsolidationSweepJob      *workjob.ConsolidationSweepHandler
	RecalculatePresentationJob *workjob.RecalculatePresentationHandler
}

// NewContainer builds the full dependency graph.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisCache := infracache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c := &Container{
		Config:      cfg,
		DB:          db,
		Cache:       redisCache,
		JWTManager:  jwt.NewManager(cfg.JWT.Secret),
		AsynqClient: asynqClient,
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()
	c.initJobs()

	log.Info().Msg("Container initialized")
	return c, nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool
	c.IdentifierRepo = identifierrepo.NewPostgresRepository(pool)
	c.EditionRepo = editionrepo.NewPostgresRepository(pool)
	c.LicensePoolRepo = poolrepo.NewPostgresRepository(pool)
	c.WorkRepo = workrepo.NewPostgresRepository(pool)
	c.ClassificationRepo = classificationrepo.NewPostgresRepository(pool)
	c.MeasurementRepo = measurementrepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	cons := c.Config.Consolidation

	c.EquivalenceService = identifierservice.NewEquivalenceService(
		c.IdentifierRepo, c.Cache,
		time.Duration(cons.ClosureCacheTTLHours)*time.Hour)
	c.EditionPresentation = editionservice.NewPresentationService(
		c.EditionRepo, c.IdentifierRepo, c.EquivalenceService)
	c.AvailabilityService = poolservice.NewAvailabilityService(
		c.LicensePoolRepo, c.IdentifierRepo, c.WorkRepo)
	c.ClassifierService = classificationservice.NewClassifierService(c.ClassificationRepo)
	c.QualityService = measurementservice.NewQualityService(c.MeasurementRepo, nil)

	c.WorkPresentation = workservice.NewPresentationService(
		c.WorkRepo, c.EditionRepo, c.EditionPresentation, c.LicensePoolRepo,
		c.AvailabilityService, c.ClassificationRepo, c.ClassifierService,
		c.QualityService, c.IdentifierRepo, c.EquivalenceService, nil, cons)
	c.ConsolidationService = workservice.NewConsolidationService(
		c.WorkRepo, c.EditionRepo, c.EditionPresentation, c.LicensePoolRepo,
		c.WorkPresentation)
}

func (c *Container) initHandlers() {
	c.IdentifierHandler = identifierhandler.NewHandler(c.IdentifierRepo, c.EquivalenceService)
	c.LicensePoolHandler = poolhandler.NewHandler(c.LicensePoolRepo, c.AvailabilityService, c.AsynqClient)
	c.WorkHandler = workhandler.NewHandler(c.WorkRepo, c.EditionRepo,
		c.ConsolidationService, c.Config.Consolidation.MergeThreshold, c.AsynqClient)
}

func (c *Container) initJobs() {
	c.CalculateWorkJob = workjob.NewCalculateWorkHandler(c.ConsolidationService)
	c.ConsolidationSweepJob = workjob.NewConsolidationSweepHandler(c.ConsolidationService)
	c.RecalculatePresentationJob = workjob.NewRecalculatePresentationHandler(c.WorkPresentation)
}

// Cleanup releases external connections. Call on shutdown.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	log.Info().Msg("Container cleaned up")
}
