package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.requireAuth)
	streamMiddleware := alice.New(app.recoverPanic, app.logRequest)

	mux := pat.New()

	// Auth
	mux.Post("/auth/sign_up", standardMiddleware.ThenFunc(app.authHandler.SignUp))
	mux.Post("/auth/sign_in", standardMiddleware.ThenFunc(app.authHandler.SignIn))
	mux.Post("/auth/refresh", standardMiddleware.ThenFunc(app.authHandler.Refresh))
	mux.Post("/auth/sign_out", standardMiddleware.ThenFunc(app.authHandler.SignOut))
	mux.Get("/auth/me", standardMiddleware.ThenFunc(app.authHandler.Me))
	mux.Post("/auth/email_exists", standardMiddleware.ThenFunc(app.authHandler.EmailExists))
	mux.Get("/ws/auth", streamMiddleware.ThenFunc(app.authEvents))

	// Categories
	mux.Get("/categories", standardMiddleware.ThenFunc(app.categoryHandler.GetAllCategories))
	mux.Get("/categories/:id", standardMiddleware.ThenFunc(app.categoryHandler.GetCategoryByID))

	// Listings
	mux.Get("/listings", standardMiddleware.ThenFunc(app.listingHandler.GetListings))
	mux.Get("/listings/:id", standardMiddleware.ThenFunc(app.listingHandler.GetListingByID))
	mux.Post("/listings", authMiddleware.ThenFunc(app.listingHandler.CreateListing))
	mux.Put("/listings/:id", authMiddleware.ThenFunc(app.listingHandler.UpdateListing))
	mux.Del("/listings/:id", authMiddleware.ThenFunc(app.listingHandler.DeleteListing))
	mux.Post("/listings/:id/sold", authMiddleware.ThenFunc(app.listingHandler.MarkSold))
	mux.Post("/listings/:id/unsold", authMiddleware.ThenFunc(app.listingHandler.MarkUnsold))

	// Sellers
	mux.Get("/sellers/:id", standardMiddleware.ThenFunc(app.sellerHandler.GetSeller))
	mux.Get("/sellers/:id/listings", standardMiddleware.ThenFunc(app.sellerHandler.GetSellerListings))
	mux.Put("/profile", authMiddleware.ThenFunc(app.sellerHandler.UpdateProfile))
	mux.Post("/profile/avatar", authMiddleware.ThenFunc(app.sellerHandler.UploadAvatar))
	mux.Post("/profile/device_token", authMiddleware.ThenFunc(app.sellerHandler.SetDeviceToken))

	if app.uploadsDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.uploadsDir)))
		mux.Get("/uploads/", alice.New(app.recoverPanic, secureHeaders).Then(files))
	}

	return mux
}
