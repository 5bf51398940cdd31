// Package shared wires the repositories & services both binaries run on.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/listing"
	"github.com/tscswap/backend/core/location"
	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
	"github.com/tscswap/backend/services/events"
	"github.com/tscswap/backend/services/metrics"
	"github.com/tscswap/backend/storage/database"
	inmemdb "github.com/tscswap/backend/storage/database/inmem"
	sqlxrepos "github.com/tscswap/backend/storage/database/sqlx"
)

const engineInMem = "inmem"

type (
	Setup struct {
		CreateDB bool // create the database & its user when missing
		Migrate  bool // apply pending migrations
	}

	// Container holds everything built from the configuration.
	Container struct {
		Conf   *core.Config
		Logger core.Logger
		DB     *sqlx.DB // nil with the in-memory engine

		SwapRepo swap.Repository

		Validate    *validator.Validate
		Translator  ut.Translator
		Recorder    *metrics.PrometheusRecorder
		Publisher   swap.Publisher
		SwapSvc     *swap.Service
		ListingSvc  *listing.Service
		LocationSvc *location.Service
		Presenter   *present.Presenter

		closers []func() error
	}

	repositories struct {
		swap     swap.Repository
		listing  listing.Repository
		location location.Repository
		contacts present.ContactDirectory
	}
)

func NewContainer(conf *core.Config, logger core.Logger, setup Setup) (*Container, error) {
	c := &Container{Conf: conf, Logger: logger}

	repos, err := c.openStorage(setup)
	if err != nil {
		return nil, err
	}
	c.SwapRepo = repos.swap

	c.Translator = core.NewTranslator()
	c.Validate = validator.New()
	core.InitValidators(c.Validate, c.Translator)
	listing.RegisterValidators(c.Validate, c.Translator)

	c.Recorder = metrics.NewPrometheusRecorder(conf.AppName)
	if err = c.openPublisher(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.SwapSvc = swap.NewService(repos.swap, c.Recorder, logger, swap.NewSettings(conf.Matching))
	c.ListingSvc = listing.NewService(repos.listing, repos.swap, logger)
	c.LocationSvc = location.NewService(repos.location)
	c.Presenter = present.NewPresenter(repos.contacts, conf.Matching.PresentLimit)
	return c, nil
}

func (c *Container) openStorage(setup Setup) (repositories, error) {
	if c.Conf.Database.Engine == engineInMem {
		c.Logger.Warn("database: using the in-memory engine, nothing will be persisted")
		db := inmemdb.Open()
		return repositories{
			swap:     inmemdb.NewSwapRepository(db),
			listing:  inmemdb.NewListingRepository(db),
			location: inmemdb.NewLocationRepository(db),
			contacts: inmemdb.NewContactRepository(db),
		}, nil
	}

	if setup.CreateDB {
		if err := database.CreateIfNotExist(c.Conf); err != nil {
			return repositories{}, errors.Wrap(err, "creating database")
		}
	}
	db, err := database.Open(c.Conf)
	if err != nil {
		return repositories{}, errors.Wrap(err, "opening database")
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if setup.Migrate {
		if err = database.Migrate(db.DB); err != nil {
			_ = c.Close()
			return repositories{}, errors.Wrap(err, "migrating database")
		}
	}
	return repositories{
		swap:     sqlxrepos.NewSwapRepository(db),
		listing:  sqlxrepos.NewListingRepository(db),
		location: sqlxrepos.NewLocationRepository(db),
		contacts: sqlxrepos.NewContactRepository(db),
	}, nil
}

func (c *Container) openPublisher() error {
	pub, err := events.NewNATSPublisher(c.Conf.NATS, c.Conf.AppName, c.Logger)
	if err != nil {
		return errors.Wrap(err, "connecting to nats")
	}
	if pub == nil {
		c.Publisher = events.NopPublisher{}
		return nil
	}
	c.Publisher = pub
	c.closers = append(c.closers, pub.Close)
	return nil
}

// Close releases the connections in reverse opening order.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
