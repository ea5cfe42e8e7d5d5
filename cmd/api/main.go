package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/avelar/dropship-store/internal/cart"
	"github.com/avelar/dropship-store/internal/checkout"
	"github.com/avelar/dropship-store/internal/config"
	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/avelar/dropship-store/internal/session"
	"github.com/avelar/dropship-store/internal/store"
	"github.com/shopspring/decimal"
)

const (
	cartCookieName    = "cart"
	sessionCookieName = "user_session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	app := &application{
		db:      db,
		cookies: cfg.Cookies,
		catalog: &store.Catalog{DB: db},
		orders:  &store.Orders{DB: db},
		creds:   &store.Credentials{DB: db},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/products", app.handleProducts)
	mux.HandleFunc("/products/", app.handleProductByID)
	mux.HandleFunc("/cart", app.handleCart)
	mux.HandleFunc("/cart/add/", app.handleCartAdd)
	mux.HandleFunc("/cart/update/", app.handleCartUpdate)
	mux.HandleFunc("/cart/remove/", app.handleCartRemove)
	mux.HandleFunc("/orders", app.handleOrders)
	mux.HandleFunc("/orders/", app.handleOrderByID)
	mux.HandleFunc("/register", app.handleRegister)
	mux.HandleFunc("/login", app.handleLogin)
	mux.HandleFunc("/logout", app.handleLogout)
	mux.HandleFunc("/dashboard", app.handleDashboard)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

type application struct {
	db      *sql.DB
	cookies config.CookieConfig
	catalog *store.Catalog
	orders  *store.Orders
	creds   *store.Credentials
}

// Cart plumbing: the cart lives entirely in the client-held cookie,
// decoded at the start of the request and re-encoded after every
// mutation. A missing or corrupt cookie is just an empty cart.

func (app *application) readCart(r *http.Request) *cart.Cart {
	cookie, err := r.Cookie(cartCookieName)
	if err != nil {
		return cart.New()
	}
	return cart.Decode(cookie.Value)
}

func (app *application) writeCart(w http.ResponseWriter, c *cart.Cart) {
	http.SetCookie(w, &http.Cookie{
		Name:   cartCookieName,
		Value:  c.Encode(),
		Path:   "/",
		MaxAge: app.cookies.CartMaxAge,
	})
}

func (app *application) clearCart(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   cartCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func (app *application) sessionUser(r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, nil
	}
	return session.ResolveUser(r.Context(), cookie.Value, app.creds)
}

func (app *application) writeSession(w http.ResponseWriter, userID int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.EncodeToken(userID),
		Path:     "/",
		MaxAge:   app.cookies.SessionMaxAge,
		HttpOnly: true,
	})
}

func (app *application) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var req struct {
			SKU           string `json:"sku"`
			Name          string `json:"name"`
			Description   string `json:"description"`
			Price         string `json:"price"`
			ImageURL      string `json:"image_url"`
			StockQuantity int    `json:"stock_quantity"`
			Featured      bool   `json:"featured"`
			Category      string `json:"category"`
			Brand         string `json:"brand"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil || !price.IsPositive() {
			respondError(w, http.StatusBadRequest, "Price must be a positive decimal")
			return
		}

		product, err := store.CreateProduct(ctx, app.db, store.CreateProductRequest{
			SKU:           req.SKU,
			Name:          req.Name,
			Description:   req.Description,
			Price:         price,
			ImageURL:      req.ImageURL,
			StockQuantity: req.StockQuantity,
			Featured:      req.Featured,
			Category:      req.Category,
			Brand:         req.Brand,
		})
		if err != nil {
			if errors.Is(err, database.ErrDuplicateSKU) {
				respondError(w, http.StatusConflict, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, product)

	case http.MethodGet:
		if r.URL.Query().Get("featured") == "true" {
			products, err := store.ListFeatured(ctx, app.db, 3)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusOK, products)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		result, err := store.ListProducts(ctx, app.db, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *application) handleProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/products/"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), app.db, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (app *application) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	c := app.readCart(r)
	lines, err := c.Resolve(r.Context(), app.catalog)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": lines,
		"count": c.Count(),
		"total": cart.Total(lines),
	})
}

func (app *application) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimPrefix(r.URL.Path, "/cart/add/")
	if _, err := strconv.ParseInt(productID, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	quantity := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil {
			quantity = parsed
		}
	}

	c := app.readCart(r)
	c.Add(productID, quantity)
	app.writeCart(w, c)

	http.Redirect(w, r, "/cart", http.StatusFound)
}

func (app *application) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	// Path shape: /cart/update/{product_id}/{quantity}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/cart/update/"), "/")
	if len(parts) != 2 {
		respondError(w, http.StatusBadRequest, "Expected /cart/update/{product_id}/{quantity}")
		return
	}

	productID := parts[0]
	if _, err := strconv.ParseInt(productID, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	quantity, err := strconv.Atoi(parts[1])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quantity")
		return
	}

	c := app.readCart(r)
	c.Update(productID, quantity)
	app.writeCart(w, c)

	http.Redirect(w, r, "/cart", http.StatusFound)
}

func (app *application) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimPrefix(r.URL.Path, "/cart/remove/")

	c := app.readCart(r)
	c.Remove(productID)
	app.writeCart(w, c)

	http.Redirect(w, r, "/cart", http.StatusFound)
}

func (app *application) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var info checkout.CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var userID *int64
	user, err := app.sessionUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user != nil {
		userID = &user.ID
	}

	c := app.readCart(r)
	order, err := checkout.Commit(r.Context(), c, app.catalog, app.orders, userID, info)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &verr):
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	app.clearCart(w)
	respondJSON(w, http.StatusCreated, order)
}

func (app *application) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/orders/")

	if idStr, ok := strings.CutSuffix(rest, "/cancel"); ok {
		app.handleOrderCancel(w, r, idStr)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := store.GetOrder(r.Context(), app.db, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (app *application) handleOrderCancel(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := store.GetOrder(r.Context(), app.db, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cancelled, err := checkout.Cancel(r.Context(), app.orders, order)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cancelled)
}

func (app *application) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	user, err := store.CreateUser(r.Context(), app.db, store.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	app.writeSession(w, user.ID)
	respondJSON(w, http.StatusCreated, user)
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := session.Authenticate(r.Context(), app.creds, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := app.creds.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("Update last login for user %d: %v", user.ID, err)
	}

	app.writeSession(w, user.ID)
	respondJSON(w, http.StatusOK, user)
}

func (app *application) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/products", http.StatusFound)
}

func (app *application) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := app.sessionUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Please log in")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 5
	}

	orders, err := store.ListOrdersCursor(r.Context(), app.db, user.ID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":          user,
		"recent_orders": orders,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
