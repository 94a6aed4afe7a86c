package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/espaco-booking-backend/internal/app"
	"github.com/nekogravitycat/espaco-booking-backend/internal/auth"
	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	"github.com/nekogravitycat/espaco-booking-backend/internal/client"
	"github.com/nekogravitycat/espaco-booking-backend/internal/conflict"
	"github.com/nekogravitycat/espaco-booking-backend/internal/db"
	spaceHttp "github.com/nekogravitycat/espaco-booking-backend/internal/space/http"
	"github.com/nekogravitycat/espaco-booking-backend/internal/user"
)

var (
	testPool      *pgxpool.Pool
	testContainer *app.Container
)

// TestMain wires the real container against TEST_DB_DSN. Without it the tests skip.
func TestMain(m *testing.M) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	if err := db.EnsureSchema(ctx, testPool); err != nil {
		log.Fatalf("Unable to apply schema: %v", err)
	}

	storageDir, err := os.MkdirTemp("", "espaco-uploads")
	if err != nil {
		log.Fatalf("Unable to create storage dir: %v", err)
	}

	testContainer, err = app.NewContainer(app.Config{
		DBPool:           testPool,
		JWTSecret:        "integration-secret",
		JWTTTL:           30 * time.Minute,
		BcryptCost:       4,
		StoragePath:      storageDir,
		CalendarCacheTTL: time.Minute,
	})
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}

	exitCode := m.Run()

	testPool.Close()
	_ = os.RemoveAll(storageDir)
	os.Exit(exitCode)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DB_DSN not set")
	}
}

func clearTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE public.agendamentos, public.espaco_responsaveis, public.espacos, public.users CASCADE")
	require.NoError(t, err)
}

func createTestUser(t *testing.T, email, role string) (*user.User, string) {
	t.Helper()
	hash, err := auth.NewBcryptPasswordHasher(4).Hash("password123")
	require.NoError(t, err)

	u := &user.User{Email: email, PasswordHash: hash, Name: email, Role: role, IsActive: true}
	require.NoError(t, user.NewPgxRepository(testPool).Create(context.Background(), u))

	token, err := testContainer.JWTManager.GenerateAccessToken(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testContainer.Router.ServeHTTP(w, req)
	return w
}

func TestBookingConflictFlow(t *testing.T) {
	requireDB(t)
	clearTables(t)
	ctx := context.Background()

	_, adminToken := createTestUser(t, "admin@espaco.test", auth.RoleAdmin)
	ana, anaToken := createTestUser(t, "ana@espaco.test", auth.RoleUser)
	_, beaToken := createTestUser(t, "bea@espaco.test", auth.RoleUser)

	w := executeRequest(http.MethodPost, "/v1/espacos", spaceHttp.CreateSpaceRequest{Name: "Auditório", Capacity: 80}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sp spaceHttp.SpaceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sp))

	srv := httptest.NewServer(testContainer.Router)
	t.Cleanup(srv.Close)

	base := time.Now().AddDate(0, 1, 0)
	day := base.Format("2006-01-02")
	nextWeek := base.AddDate(0, 0, 7).Format("2006-01-02")

	candidate := func(userID, start, end string) conflict.Candidate {
		return conflict.Candidate{
			Title:         "Reunião",
			UserID:        userID,
			SpaceID:       sp.ID,
			StartDate:     day,
			StartTime:     start,
			EndDate:       day,
			EndTime:       end,
			Justification: "Planejamento",
		}
	}

	anaCoord := conflict.NewCoordinator(client.New(srv.URL+"/v1", anaToken), testContainer.Colorizer, nil)
	first := candidate(ana.ID, "09:00", "10:00")
	first.Recurrence = &booking.Recurrence{Kind: booking.RecurrenceWeekly, SeriesEndDate: nextWeek}

	snap, err := anaCoord.Submit(ctx, first)
	require.NoError(t, err)
	require.Equal(t, conflict.StateResolved, snap.State, "%v", snap.Err)
	require.NotNil(t, snap.Result.SeriesID)
	seriesHead := snap.Result

	beaCoord := conflict.NewCoordinator(client.New(srv.URL+"/v1", beaToken), testContainer.Colorizer, nil)

	t.Run("touching slot is free", func(t *testing.T) {
		snap, err := beaCoord.Submit(ctx, candidate("", "10:00", "11:00"))
		require.NoError(t, err)
		assert.Equal(t, conflict.StateResolved, snap.State, "%v", snap.Err)
	})

	t.Run("overlap is presented and overridden", func(t *testing.T) {
		snap, err := beaCoord.Submit(ctx, candidate("", "09:30", "10:30"))
		require.NoError(t, err)
		require.Equal(t, conflict.StateConflictPresented, snap.State, "%v", snap.Err)
		require.Len(t, snap.Conflicts, 2)
		assert.Equal(t, seriesHead.ID, snap.Conflicts[0].Booking.ID)
		assert.Equal(t, "ana@espaco.test", snap.Conflicts[0].Booking.UserName)
		assert.Equal(t, testContainer.Colorizer.ColorFor(seriesHead), snap.Conflicts[0].Color)

		snap, err = beaCoord.OverrideAndResubmit(ctx)
		require.NoError(t, err)
		require.Equal(t, conflict.StateResolved, snap.State, "%v", snap.Err)
		assert.Equal(t, booking.StatusPending, snap.Result.Status)
	})

	t.Run("abandon leaves nothing behind", func(t *testing.T) {
		snap, err := beaCoord.Submit(ctx, candidate("", "09:15", "09:45"))
		require.NoError(t, err)
		require.Equal(t, conflict.StateConflictPresented, snap.State)

		snap, err = beaCoord.Abandon()
		require.NoError(t, err)
		assert.Equal(t, conflict.StateAbandoned, snap.State)

		w := executeRequest(http.MethodGet, "/v1/agendamentos?page_size=50", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		var page struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 4, page.Total, "two series occurrences, the touching slot and the override")
	})

	t.Run("lifecycle", func(t *testing.T) {
		admin := client.New(srv.URL+"/v1", adminToken)
		b, err := admin.Transition(ctx, seriesHead.ID, booking.ActionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusApproved, b.Status)

		_, err = client.New(srv.URL+"/v1", anaToken).Transition(ctx, seriesHead.ID, booking.ActionUncancel, "")
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

		_, err = admin.Transition(ctx, seriesHead.ID, booking.ActionCancel, "")
		require.NoError(t, err)

		snap, err := beaCoord.Submit(ctx, candidate("", "09:00", "09:30"))
		require.NoError(t, err)
		assert.Equal(t, conflict.StateResolved, snap.State, "cancelled bookings no longer block")
	})

	t.Run("calendar colors the series alike", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/calendario?espaco_id="+sp.ID+"&de="+day+"&ate="+nextWeek+"&status=pendente", nil, anaToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Items []struct {
				ID       string  `json:"id"`
				SeriesID *string `json:"serie_id"`
				Cor      struct {
					Background string `json:"background"`
				} `json:"cor"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		colors := map[string]string{}
		for _, item := range resp.Items {
			if item.SeriesID != nil && *item.SeriesID == *seriesHead.SeriesID {
				colors[item.ID] = item.Cor.Background
			}
		}
		require.Len(t, colors, 1, "the head occurrence was cancelled, its sibling is still pending")
	})
}
