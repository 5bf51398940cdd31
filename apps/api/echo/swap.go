package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
)

type swapApi struct {
	svc       *swap.Service
	presenter *present.Presenter
	publisher swap.Publisher
}

func registerSwapAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := swapApi{
		svc:       opts.SwapSvc,
		presenter: opts.Presenter,
		publisher: opts.Publisher,
	}

	sg := g.Group("/swaps", jwt)
	sg.GET("/matches/me", api.myMatches)
	sg.GET("/matches/:kind/:id", api.matches)
	sg.GET("/matches/:kind/:id/text", api.matchesText)
	sg.POST("/matches/:kind/:id/publish", api.publish, adminMiddleware())
	sg.GET("/diagnosis", api.diagnose, adminMiddleware())
}

// Handlers

func (api *swapApi) matches(ctx echo.Context) error {
	out, _, err := api.findMatches(ctx, pathRef(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *swapApi) myMatches(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	out, _, err := api.findMatches(ctx, swap.Ref{Kind: swap.KindAccount, ID: claims.Subject})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *swapApi) matchesText(ctx echo.Context) error {
	out, q, err := api.findMatches(ctx, pathRef(ctx))
	if err != nil {
		return err
	}
	text, err := api.presenter.Render(ctx.Request().Context(), out, q.Limit)
	if err != nil {
		return errors.Wrap(err, "rendering matches")
	}
	return ctx.String(http.StatusOK, text)
}

// publish re-runs the matching and hands the confirmed matches over to the publisher.
func (api *swapApi) publish(ctx echo.Context) error {
	out, _, err := api.findMatches(ctx, pathRef(ctx))
	if err != nil {
		return err
	}
	if err := api.publisher.PublishMatches(ctx.Request().Context(), out); err != nil {
		return errors.Wrapf(err, "publishing matches of %s", out.Anchor)
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *swapApi) diagnose(ctx echo.Context) error {
	diag, err := api.svc.Diagnose(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "diagnosing population")
	}
	return ctx.JSON(http.StatusOK, diag)
}

// Helpers

// findMatches is read-only: nothing is published from here.
func (api *swapApi) findMatches(ctx echo.Context, ref swap.Ref) (swap.Outcome, MatchQuery, error) {
	var q MatchQuery
	if !ref.Kind.Valid() {
		return swap.Outcome{}, q, swap.ErrInvalidKind
	}
	if err := checkAnchorAccess(ctx, ref); err != nil {
		return swap.Outcome{}, q, err
	}
	if err := q.Bind(ctx, api.svc.DefaultOptions()); err != nil {
		return swap.Outcome{}, q, err
	}

	out, err := api.svc.FindMatches(ctx.Request().Context(), ref, q.Options)
	if err != nil {
		return swap.Outcome{}, q, errors.Wrapf(err, "finding matches of %s", ref)
	}
	return out, q, nil
}

// checkAnchorAccess lets teachers search from their own account only. Listings are public.
func checkAnchorAccess(ctx echo.Context, ref swap.Ref) error {
	if ref.Kind != swap.KindAccount {
		return nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin || claims.Subject == ref.ID {
		return nil
	}
	return errHttpForbidden
}

func pathRef(ctx echo.Context) swap.Ref {
	return swap.Ref{Kind: swap.Kind(ctx.Param("kind")), ID: ctx.Param("id")}
}
