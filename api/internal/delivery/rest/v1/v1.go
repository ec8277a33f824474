package v1

import (
	"checkout/api/internal/config"
	"checkout/api/internal/logger"
	"checkout/api/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	services *service.Services
	db       *gorm.DB
	config   *config.Config
	log      logger.Logger
}

func (h *Handler) InitRoutes(g *gin.RouterGroup) {
	{
		h.initPubInvoiceRoutes(g)
		h.initPrivInvoiceRoutes(g)
		h.initCurrencyRoutes(g)
	}
}

func NewHandler(services *service.Services, db *gorm.DB, config *config.Config, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		log:      log,
		services: services,
		db:       db,
	}
}
