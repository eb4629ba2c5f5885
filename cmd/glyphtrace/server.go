package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/glyphtrace/glyphtrace/pkg/audit"
	"github.com/glyphtrace/glyphtrace/pkg/cache"
	"github.com/glyphtrace/glyphtrace/pkg/config"
	"github.com/glyphtrace/glyphtrace/pkg/scan"
)

// server bundles the analyzer with its optional glue surfaces. Audit sink
// and result cache degrade to no-ops when unconfigured or unreachable.
type server struct {
	cfg      *config.Config
	analyzer *scan.Analyzer
	auditor  *audit.Logger
	store    *cache.Cache
}

func newServer(cfg *config.Config) (*server, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &server{
		cfg:      cfg,
		analyzer: scan.NewAnalyzer(nil),
	}

	caps := s.analyzer.Capabilities()
	if caps.HasNames() {
		log.Println("✓ codepoint names enabled (runenames)")
	} else {
		log.Println("○ codepoint names disabled")
	}
	if caps.HasConfusables() {
		log.Println("✓ confusable skeletons enabled")
	} else {
		log.Println("○ confusable skeletons disabled")
	}
	if caps.HasNormalizer() {
		log.Println("✓ NFKC normalization enabled")
	} else {
		log.Println("○ NFKC normalization disabled")
	}

	auditor, err := audit.NewLogger(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}
	s.auditor = auditor
	if auditor != nil {
		log.Printf("✓ audit log enabled (%s)", cfg.AuditLogPath)
	} else {
		log.Println("○ audit log disabled")
	}

	if store := cache.New(cfg.RedisAddr, cfg.CacheTTL); store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Printf("○ result cache disabled (ping failed: %v)", err)
			store.Close()
		} else {
			s.store = store
			log.Printf("✓ result cache enabled (%s, ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
		}
	} else {
		log.Println("○ result cache disabled")
	}

	return s, nil
}

func (s *server) app() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "glyphtrace",
		BodyLimit: s.cfg.MaxBodyBytes,
	})

	app.Use(func(c fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Get("/api/checks", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"checks": scan.CheckNames()})
	})

	app.Post("/api/analyze", s.handleAnalyze)

	return app
}

func (s *server) handleAnalyze(c fiber.Ctx) error {
	var req scan.AnalysisRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "error": "invalid request",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "error": "text field is required",
		})
	}

	if len(req.Selected) == 0 {
		req.Selected = s.cfg.DefaultChecks
	}
	if req.Settings.MaskURLs == nil {
		req.Settings.MaskURLs = &s.cfg.MaskURLs
	}

	key := cache.Key(req.Text, req.Selected, *req.Settings.MaskURLs)
	if stored, ok := s.store.Get(c.Context(), key); ok {
		// Replays get their own request id; only the findings are shared.
		if envelope, err := withRequestID(stored, uuid.New().String()); err == nil {
			s.record(req, nil, true)
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(envelope)
		}
		// An unparseable entry falls through to a fresh scan.
	}

	resp := s.analyzer.Analyze(req)
	resp.Meta.RequestID = uuid.New().String()

	envelope, err := json.Marshal(resp)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok": false, "error": "encoding failed",
		})
	}

	s.store.Set(c.Context(), key, envelope)
	s.record(req, &resp, false)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(envelope)
}

// withRequestID stamps a fresh request id into a stored envelope without
// touching the rest of the document.
func withRequestID(envelope []byte, id string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &doc); err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := json.Unmarshal(doc["meta"], &meta); err != nil {
		return nil, err
	}
	meta["request_id"] = id
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	doc["meta"] = rawMeta
	return json.Marshal(doc)
}

// record emits an audit event. Counting is best effort and never alters
// the response.
func (s *server) record(req scan.AnalysisRequest, resp *scan.AnalysisResponse, cached bool) {
	if s.auditor == nil {
		return
	}
	ev := audit.Event{
		Checks:    req.Selected,
		TextBytes: len(req.Text),
		Cached:    cached,
	}
	if resp != nil {
		ev.Findings = findingCounts(resp)
	}
	s.auditor.Record(ev)
}

func findingCounts(resp *scan.AnalysisResponse) map[string]int {
	counts := make(map[string]int, len(resp.Server))
	for name, report := range resp.Server {
		switch r := report.(type) {
		case scan.UnicodeReport:
			counts[name] = r.Count
		case scan.BidiReport:
			counts[name] = len(r.Issues)
		case scan.ConfusableReport:
			counts[name] = len(r.Suspicious)
		case scan.PayloadReport:
			counts[name] = r.Count
		case scan.NormReport:
			if r.Differs {
				counts[name] = 1
			} else {
				counts[name] = 0
			}
		}
	}
	return counts
}

func runServer(cfg *config.Config) {
	s, err := newServer(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] %v", err)
	}
	defer s.auditor.Close()
	defer s.store.Close()

	app := s.app()

	log.Printf("glyphtrace HTTP server starting on :%s", cfg.Port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health       - Health check")
	log.Printf("  GET  /api/checks   - List available checks")
	log.Printf("  POST /api/analyze  - Scan text for hidden signals")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
