package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mailforge/internal/config"
	"mailforge/internal/db"
	"mailforge/internal/logging"
	"mailforge/internal/model"
	"mailforge/internal/repository"
	"mailforge/internal/service"
)

// existingTemplateScan bounds how many of the admin's templates are matched by name.
const existingTemplateScan = 1000

// starterTemplate is one entry of the SEED_TEMPLATES_URL JSON array.
type starterTemplate struct {
	Name       string            `json:"name"`
	Subject    string            `json:"subject"`
	Category   string            `json:"category"`
	Tags       []string          `json:"tags"`
	Components []model.Component `json:"components"`
	IsPremium  bool              `json:"isPremium"`
}

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, false); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	logger.Info("database migrations completed")

	ctx := context.Background()
	accountRepo := repository.NewAccountRepository(gormDB)
	templateRepo := repository.NewTemplateRepository(gormDB)

	admin, created, err := seedAdmin(ctx, accountRepo, cfg)
	if err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	logger.Info("admin account ready",
		zap.String("email", admin.Email),
		zap.Bool("created", created),
	)

	if cfg.SeedTemplatesURL == "" {
		logger.Info("SEED_TEMPLATES_URL not set, skipping starter templates")
		return
	}

	logger.Info("fetching starter templates", zap.String("url", cfg.SeedTemplatesURL))
	starters, err := fetchTemplates(ctx, cfg.SeedTemplatesURL)
	if err != nil {
		logger.Fatal("fetch starter templates", zap.Error(err))
	}

	seeded, updated, skipped, err := seedTemplates(ctx, templateRepo, logger, admin.ID, starters)
	if err != nil {
		logger.Fatal("seed templates", zap.Error(err))
	}
	logger.Info("seed completed",
		zap.Int("created", seeded),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
}

// seedAdmin creates the configured administrator or promotes and reactivates it.
func seedAdmin(ctx context.Context, repo repository.AccountRepository, cfg *config.Config) (*model.Account, bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil, false, errors.New("ADMIN_EMAIL is empty")
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up admin %s: %w", email, err)
	}

	if existing != nil {
		existing.Role = model.RoleAdmin
		existing.Active = true
		if cfg.AdminPassword != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return nil, false, fmt.Errorf("hash admin password: %w", err)
			}
			existing.PasswordHash = string(hash)
		}
		if err := repo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("update admin %s: %w", email, err)
		}
		return existing, false, nil
	}

	if len(cfg.AdminPassword) < 6 {
		return nil, false, errors.New("ADMIN_PASSWORD must be at least 6 characters to create the admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &model.Account{
		ID:           uuid.New(),
		Name:         cfg.AdminName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin %s: %w", email, err)
	}
	return admin, true, nil
}

// fetchTemplates downloads the starter template list.
func fetchTemplates(ctx context.Context, url string) ([]starterTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch starter templates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("starter templates returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var starters []starterTemplate
	if err := json.Unmarshal(body, &starters); err != nil {
		return nil, fmt.Errorf("parse starter templates: %w", err)
	}
	return starters, nil
}

// seedTemplates creates public templates owned by the admin, updating any the
// admin already owns under the same name. Entries go through the same field
// rules as the API; invalid ones are skipped. A name repeated within one batch
// is fully replaced by its last entry.
func seedTemplates(ctx context.Context, repo repository.TemplateRepository, logger *zap.Logger, ownerID uuid.UUID, starters []starterTemplate) (seeded, updated, skipped int, err error) {
	existing, _, err := repo.List(ctx, repository.TemplateQuery{
		Filter: repository.TemplateFilter{OwnerID: &ownerID, IncludeInactive: true},
		Limit:  existingTemplateScan,
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("list admin templates: %w", err)
	}
	byName := make(map[string]*model.Template, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	for i, s := range starters {
		input, err := service.NormalizeTemplateInput(service.TemplateInput{
			Name:       s.Name,
			Subject:    s.Subject,
			Category:   s.Category,
			Tags:       s.Tags,
			Components: s.Components,
			IsPublic:   true,
			IsPremium:  s.IsPremium,
		})
		if err != nil {
			logger.Warn("skipping starter template", zap.Int("index", i), zap.String("name", s.Name), zap.Error(err))
			skipped++
			continue
		}

		if t, ok := byName[input.Name]; ok {
			t.Subject = input.Subject
			t.Category = input.Category
			t.Tags = input.Tags
			t.Components = input.Components
			t.IsPremium = input.IsPremium
			t.IsPublic = true
			t.Active = true
			if err := repo.Update(ctx, t, "subject", "category", "tags", "components", "is_premium", "is_public", "active"); err != nil {
				return seeded, updated, skipped, fmt.Errorf("update template %q: %w", input.Name, err)
			}
			updated++
			continue
		}

		t := &model.Template{
			Name:       input.Name,
			Subject:    input.Subject,
			OwnerID:    ownerID,
			IsPublic:   true,
			IsPremium:  input.IsPremium,
			Category:   input.Category,
			Tags:       input.Tags,
			Components: input.Components,
			Active:     true,
			Rating:     decimal.Zero,
		}
		if err := repo.Create(ctx, t); err != nil {
			return seeded, updated, skipped, fmt.Errorf("create template %q: %w", input.Name, err)
		}
		byName[input.Name] = t
		seeded++
	}
	return seeded, updated, skipped, nil
}
