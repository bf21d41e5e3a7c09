package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/clinic-front-desk/internal/adapters/mongo"
	"github.com/robertarktes/clinic-front-desk/internal/adapters/postgres"
	"github.com/robertarktes/clinic-front-desk/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/clinic-front-desk/internal/adapters/redis"
	"github.com/robertarktes/clinic-front-desk/internal/clock"
	"github.com/robertarktes/clinic-front-desk/internal/config"
	httphandler "github.com/robertarktes/clinic-front-desk/internal/http"
	"github.com/robertarktes/clinic-front-desk/internal/idempotency"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
	"github.com/robertarktes/clinic-front-desk/internal/outbox"
	"github.com/robertarktes/clinic-front-desk/internal/queue"
	"github.com/robertarktes/clinic-front-desk/internal/rateLimit"
	"github.com/robertarktes/clinic-front-desk/internal/reporting"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schema = `
	CREATE TABLE IF NOT EXISTS patients (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		nik TEXT NOT NULL DEFAULT '',
		bpjs BOOLEAN NOT NULL DEFAULT FALSE,
		bpjs_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		birthdate DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY,
		day DATE NOT NULL,
		number INT NOT NULL,
		patient_id UUID NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('waiting', 'serving', 'completed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL,
		called_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		UNIQUE (day, number)
	);
	CREATE TABLE IF NOT EXISTS queue_settings (
		day DATE PRIMARY KEY,
		status TEXT NOT NULL CHECK (status IN ('active', 'paused', 'closed')),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		avg_service_minutes INT NOT NULL,
		current_number INT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		response TEXT,
		responded_by UUID,
		responded_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		dedupe_key TEXT NOT NULL
	);
`

func TestIntegration_FrontDeskDay(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "clinic",
				"POSTGRES_PASSWORD": "clinic",
				"POSTGRES_DB":       "clinic",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer mongoContainer.Terminate(ctx)

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer redisContainer.Terminate(ctx)

	rabbitContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitContainer.Terminate(ctx)

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")
	mongoHost, _ := mongoContainer.Host(ctx)
	mongoPort, _ := mongoContainer.MappedPort(ctx, "27017")
	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")
	rabbitHost, _ := rabbitContainer.Host(ctx)
	rabbitPort, _ := rabbitContainer.MappedPort(ctx, "5672")

	cfg := &config.Config{
		PGDSN:       "postgresql://clinic:clinic@" + pgHost + ":" + pgPort.Port() + "/clinic?sslmode=disable",
		MongoURI:    "mongodb://" + mongoHost + ":" + mongoPort.Port(),
		RedisAddr:   redisHost + ":" + redisPort.Port(),
		RabbitURL:   "amqp://guest:guest@" + rabbitHost + ":" + rabbitPort.Port() + "/",
		ClinicTZ:    "UTC",
		SnapshotTTL: time.Second,
	}

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatal(err)
	}
	repo := postgres.NewRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	logger := observability.NewLogger()
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("clinic"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}

	// Bind the assertion queue before any event is published.
	consumer, err := rabbit.NewConsumer(rabbitConn, "clinic.test", "ticket.*")
	if err != nil {
		t.Fatal(err)
	}
	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}

	clk := clock.NewWallClock(cfg.Location())
	engine := queue.NewEngine(repo, repo, clk, logger)
	reporter := reporting.NewReporter(repo, cfg.ClinicTZ)

	handlers := httphandler.NewHandlers(cfg, engine, repo, reporter, redisCache, idemp, audit)
	r := httphandler.SetupRouter(handlers, logger, rl)

	srv := &http.Server{Addr: ":8080", Handler: r}
	go srv.ListenAndServe()
	defer srv.Shutdown(ctx)
	time.Sleep(200 * time.Millisecond)

	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()
	go outbox.NewPublisher(repo, rabbitPub, logger).Run(pubCtx, 100*time.Millisecond)

	base := "http://localhost:8080"

	// Register a patient.
	patientBody, _ := json.Marshal(map[string]interface{}{
		"name": "Budi Santoso",
		"nik":  "3171234567890001",
	})
	resp := doPost(t, base+"/v1/patients/", patientBody, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create patient: status %d", resp.StatusCode)
	}
	var patient struct {
		ID uuid.UUID `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&patient)

	// The queue starts closed, so taking a ticket fails.
	ticketBody, _ := json.Marshal(map[string]interface{}{"patient_id": patient.ID})
	resp = doPost(t, base+"/v1/queue/tickets", ticketBody, uuid.New().String())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("closed queue: expected 409, got %d", resp.StatusCode)
	}

	// Open the queue.
	statusBody, _ := json.Marshal(map[string]interface{}{"status": "active"})
	resp = doPost(t, base+"/v1/queue/status", statusBody, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("open queue: status %d", resp.StatusCode)
	}

	// Take a ticket, and replay the same request idempotently.
	key := uuid.New().String()
	resp = doPost(t, base+"/v1/queue/tickets", ticketBody, key)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("take ticket: status %d", resp.StatusCode)
	}
	var ticket struct {
		ID     uuid.UUID `json:"id"`
		Number int       `json:"number"`
	}
	json.NewDecoder(resp.Body).Decode(&ticket)
	if ticket.Number != 1 {
		t.Fatalf("expected ticket 1, got %d", ticket.Number)
	}

	resp = doPost(t, base+"/v1/queue/tickets", ticketBody, key)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("idempotent replay: status %d", resp.StatusCode)
	}
	var replayed struct {
		ID uuid.UUID `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&replayed)
	if replayed.ID != ticket.ID {
		t.Fatal("replay returned a different ticket")
	}

	// A fresh request for the same patient is a duplicate.
	resp = doPost(t, base+"/v1/queue/tickets", ticketBody, uuid.New().String())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate ticket: expected 409, got %d", resp.StatusCode)
	}

	// Snapshot shows the patient waiting.
	resp = doGet(t, base+"/v1/queue?patient_id="+patient.ID.String())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: status %d", resp.StatusCode)
	}
	var snap struct {
		Status       string `json:"status"`
		TotalWaiting int    `json:"total_waiting"`
	}
	json.NewDecoder(resp.Body).Decode(&snap)
	if snap.Status != "active" || snap.TotalWaiting != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	// Call the patient.
	resp = doPost(t, base+"/v1/queue/call-next", nil, uuid.New().String())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("call next: status %d", resp.StatusCode)
	}
	var called struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&called)
	if called.ID != ticket.ID || called.Status != "serving" {
		t.Fatalf("unexpected called ticket %+v", called)
	}

	// Nothing left to call.
	resp = doPost(t, base+"/v1/queue/call-next", nil, uuid.New().String())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("empty queue: expected 409, got %d", resp.StatusCode)
	}

	// File a complaint against the visit.
	complaintBody, _ := json.Marshal(map[string]interface{}{
		"patient_id":  patient.ID,
		"title":       "Cold waiting room",
		"category":    "facility",
		"description": "The AC is set far too low",
	})
	resp = doPost(t, base+"/v1/complaints/", complaintBody, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create complaint: status %d", resp.StatusCode)
	}

	// Queue report reflects the day.
	resp = doGet(t, base+"/v1/reports/queue")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("queue report: status %d", resp.StatusCode)
	}
	var report struct {
		TotalIssued int `json:"total_issued"`
	}
	json.NewDecoder(resp.Body).Decode(&report)
	if report.TotalIssued != 1 {
		t.Fatalf("expected 1 issued ticket in report, got %d", report.TotalIssued)
	}

	// Lifecycle events reach the broker through the outbox.
	select {
	case d := <-deliveries:
		d.Ack(false)
	case <-time.After(10 * time.Second):
		t.Fatal("no lifecycle event reached the broker")
	}
}

func doPost(t *testing.T, url string, body []byte, idempKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempKey != "" {
		req.Header.Set("Idempotency-Key", idempKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func doGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}
