package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core/location"
)

type locationApi struct {
	svc *location.Service
}

func registerLocationAPI(g *echo.Group, svc *location.Service) {
	api := locationApi{svc: svc}

	lg := g.Group("/locations")
	lg.GET("/counties", api.queryCounties)
	lg.GET("/counties/search", api.searchCounty)
	lg.GET("/constituencies", api.queryConstituencies)
	lg.GET("/wards", api.queryWards)
}

// Handlers

func (api *locationApi) queryCounties(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	counties, err := api.svc.QueryCounties(ctx.Request().Context(), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying counties")
	}
	return ctx.JSON(http.StatusOK, counties)
}

func (api *locationApi) searchCounty(ctx echo.Context) error {
	county, err := api.svc.FindCounty(ctx.Request().Context(), ctx.QueryParam("name"))
	if err != nil {
		return errors.Wrap(err, "finding county")
	}
	return ctx.JSON(http.StatusOK, county)
}

func (api *locationApi) queryConstituencies(ctx echo.Context) error {
	countyID, err := bindID(ctx, "county")
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	constituencies, err := api.svc.QueryConstituencies(ctx.Request().Context(), countyID, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying constituencies")
	}
	return ctx.JSON(http.StatusOK, constituencies)
}

func (api *locationApi) queryWards(ctx echo.Context) error {
	constituencyID, err := bindID(ctx, "constituency")
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	wards, err := api.svc.QueryWards(ctx.Request().Context(), constituencyID, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying wards")
	}
	return ctx.JSON(http.StatusOK, wards)
}
