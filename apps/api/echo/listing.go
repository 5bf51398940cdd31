package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core/listing"
)

type listingApi struct {
	svc      *listing.Service
	validate *validator.Validate
}

func registerListingAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := listingApi{
		svc:      opts.ListingSvc,
		validate: opts.Validate,
	}

	lg := g.Group("/listings", jwt)
	lg.POST("", api.create)
	lg.POST("/sync", api.sync, adminMiddleware())
}

// Handlers

func (api *listingApi) create(ctx echo.Context) error {
	var data listing.NewListing
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewListing")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	lst, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating listing")
	}
	return ctx.JSON(http.StatusCreated, lst)
}

func (api *listingApi) sync(ctx echo.Context) error {
	var opts listing.SyncOptions
	if err := ctx.Bind(&opts); err != nil {
		return errors.Wrap(err, "binding to SyncOptions")
	}
	rep, err := api.svc.SyncFromAccounts(ctx.Request().Context(), opts)
	if err != nil {
		return errors.Wrap(err, "syncing listings")
	}
	return ctx.JSON(http.StatusOK, rep)
}
