package app

import (
	"time"

	"github.com/lostmedia/payments/internal/app/api/server"
	"github.com/lostmedia/payments/internal/app/service/callbacklog"
	"github.com/lostmedia/payments/internal/app/service/entitlement"
	"github.com/lostmedia/payments/internal/app/service/payment"
	"github.com/lostmedia/payments/internal/app/service/reconcile"
	"github.com/lostmedia/payments/internal/platform/db"
	"github.com/lostmedia/payments/internal/platform/mailer"
	"github.com/lostmedia/payments/internal/platform/store"
	"github.com/lostmedia/payments/pkg/config"
	"github.com/lostmedia/payments/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	fx.Provide(store.NewStores),
	mailer.Module,
	entitlement.Module,
	reconcile.Module,
	callbacklog.Module,
	payment.Module,
	server.Module,
)
