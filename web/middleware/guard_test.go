package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"coupon-ui/database/migration"
	"coupon-ui/database/model"
	"coupon-ui/logger"
	"coupon-ui/web/service"
	"coupon-ui/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("CUI_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.ERROR)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatal(err)
	}
	defaults := migration.Defaults{TenantSlug: "default", TenantName: "Default"}
	if err := migration.NewEngine(db, migration.All(defaults)).Run(); err != nil {
		t.Fatal(err)
	}
	return db
}

// guardedEngine wires the guard chain the way web.go does, plus a test-only
// login route that writes arbitrary claims.
func guardedEngine(t *testing.T, db *gorm.DB, required model.Role) *gin.Engine {
	t.Helper()
	engine := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	engine.Use(sessions.Sessions("test-session", store))

	engine.POST("/test-login", func(c *gin.Context) {
		var p session.Principal
		role := model.Role(c.Query("role"))
		tenants := service.NewTenantService(db)
		if role == model.RoleSuperAdmin {
			p = session.SuperAdminSession{Id: 1, Name: "root"}
		} else {
			ctx, err := tenants.ResolveSlug(c.Query("slug"))
			if err != nil {
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
			if role == model.RoleAdmin {
				p = session.AdminSession{Id: 2, Name: "user", Tenant: ctx.TenantId, Slug: ctx.Slug}
			} else {
				p = session.StoreSession{Id: 3, Name: "clerk", Tenant: ctx.TenantId, Slug: ctx.Slug}
			}
		}
		if err := session.SetPrincipal(c, p); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	scoped := engine.Group("/t/:slug")
	scoped.Use(TenantResolver(service.NewTenantService(db)))
	panel := scoped.Group("/panel")
	panel.Use(RoleRequired(required))
	panel.Use(SameTenantRequired())
	panel.GET("/data", func(c *gin.Context) {
		tenant := TenantFromContext(c)
		c.JSON(http.StatusOK, gin.H{"tenant": tenant.Slug})
	})
	return engine
}

// login performs the test login and returns the session cookies.
func login(t *testing.T, engine *gin.Engine, role, slug string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test-login?role="+role+"&slug="+slug, nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("test login failed with %d", w.Code)
	}
	return w.Result().Cookies()
}

func request(engine *gin.Engine, path string, cookies []*http.Cookie, ajax bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	engine.ServeHTTP(w, req)
	return w
}

func signupTenant(t *testing.T, db *gorm.DB, slug string) {
	t.Helper()
	if _, _, err := service.NewTenantService(db).Signup(slug, slug, "owner-"+slug, "pw"); err != nil {
		t.Fatal(err)
	}
}

// Scenario: owner of acme follows a stale link into the default tenant's
// panel. The request is redirected to acme's own path, never served.
func TestTenantMismatchRedirectsToOwnSlug(t *testing.T) {
	db := newTestDB(t)
	signupTenant(t, db, "acme")
	engine := guardedEngine(t, db, model.RoleAdmin)

	cookies := login(t, engine, "admin", "acme")
	w := request(engine, "/t/default/panel/data", cookies, false)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want redirect", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/t/acme/panel/data" {
		t.Fatalf("redirect target = %q, want /t/acme/panel/data", loc)
	}
}

func TestMatchingTenantIsServed(t *testing.T) {
	db := newTestDB(t)
	signupTenant(t, db, "acme")
	engine := guardedEngine(t, db, model.RoleAdmin)

	cookies := login(t, engine, "admin", "acme")
	w := request(engine, "/t/acme/panel/data", cookies, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

// A superadmin passes every tenant check, for any tenant pair.
func TestSuperadminOverride(t *testing.T) {
	db := newTestDB(t)
	signupTenant(t, db, "acme")
	signupTenant(t, db, "beta")
	engine := guardedEngine(t, db, model.RoleAdmin)

	cookies := login(t, engine, "superadmin", "")
	for _, slug := range []string{"default", "acme", "beta"} {
		w := request(engine, "/t/"+slug+"/panel/data", cookies, false)
		if w.Code != http.StatusOK {
			t.Fatalf("superadmin denied on %s: %d", slug, w.Code)
		}
	}
}

func TestUnauthenticatedHandling(t *testing.T) {
	db := newTestDB(t)
	signupTenant(t, db, "acme")
	engine := guardedEngine(t, db, model.RoleStore)

	// Page request: redirect to login, never defaulted.
	w := request(engine, "/t/acme/panel/data", nil, false)
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("page status = %d, want redirect to login", w.Code)
	}

	// Ajax request: 401.
	w = request(engine, "/t/acme/panel/data", nil, true)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("ajax status = %d, want 401", w.Code)
	}
}

func TestRoleHierarchy(t *testing.T) {
	db := newTestDB(t)
	signupTenant(t, db, "acme")

	// store role on an admin-only route: forbidden.
	adminOnly := guardedEngine(t, db, model.RoleAdmin)
	cookies := login(t, adminOnly, "store", "acme")
	if w := request(adminOnly, "/t/acme/panel/data", cookies, false); w.Code != http.StatusForbidden {
		t.Fatalf("store on admin route: %d, want 403", w.Code)
	}

	// admin role satisfies a store requirement.
	storeRoute := guardedEngine(t, db, model.RoleStore)
	cookies = login(t, storeRoute, "admin", "acme")
	if w := request(storeRoute, "/t/acme/panel/data", cookies, false); w.Code != http.StatusOK {
		t.Fatalf("admin on store route: %d, want 200", w.Code)
	}
}

func TestUnknownSlugIs404(t *testing.T) {
	db := newTestDB(t)
	engine := guardedEngine(t, db, model.RoleAdmin)

	if w := request(engine, "/t/ghost/panel/data", nil, false); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
