package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/horde"
	"github.com/YRUSONOZ/stable-ui/internal/registry/domain"
	"github.com/samber/lo"
)

const referenceFetchTimeout = 30 * time.Second

// RegistryService keeps a merged snapshot of horde model availability and
// the static model reference document. Consumers always read the last
// good snapshot; a failed refresh keeps the previous one.
type RegistryService struct {
	hordeClient  *horde.Client
	referenceURL string
	refClient    *http.Client

	mu          sync.RWMutex
	models      []domain.ModelDetails
	byName      map[string]domain.ModelDetails
	refreshedAt time.Time
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(hordeClient *horde.Client, referenceURL string) *RegistryService {
	return &RegistryService{
		hordeClient:  hordeClient,
		referenceURL: referenceURL,
		refClient:    &http.Client{Timeout: referenceFetchTimeout},
		byName:       make(map[string]domain.ModelDetails),
	}
}

// Refresh fetches both sources and swaps in a new snapshot. On error the
// previous snapshot stays in place.
func (s *RegistryService) Refresh(ctx context.Context) error {
	logger := horde.NewLogger(ctx)

	actives, err := s.hordeClient.ActiveModels(ctx)
	if err != nil {
		return fmt.Errorf("fetch active models: %w", err)
	}

	reference, err := s.fetchReference(ctx)
	if err != nil {
		return fmt.Errorf("fetch model reference: %w", err)
	}

	merged := merge(actives, reference)

	s.mu.Lock()
	s.models = merged
	s.byName = lo.KeyBy(merged, func(m domain.ModelDetails) string { return m.Name })
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	logger.LogInfof("registry_refresh", "snapshot updated models=%d active=%d reference=%d",
		len(merged), len(actives), len(reference))
	return nil
}

// List returns the snapshot sorted by worker count descending, then name.
func (s *RegistryService) List() []domain.ModelDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ModelDetails, len(s.models))
	copy(out, s.models)
	return out
}

// Get returns one model by name
func (s *RegistryService) Get(name string) (domain.ModelDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[name]
	if !ok {
		return domain.ModelDetails{}, domain.ErrModelNotFound
	}
	return m, nil
}

// RefreshedAt returns when the snapshot was last replaced. Zero means no
// refresh has succeeded yet.
func (s *RegistryService) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

func (s *RegistryService) fetchReference(ctx context.Context) (map[string]horde.ModelReferenceEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.referenceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.refClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference fetch returned status %d", resp.StatusCode)
	}

	var reference map[string]horde.ModelReferenceEntry
	if err := json.NewDecoder(resp.Body).Decode(&reference); err != nil {
		return nil, fmt.Errorf("decode reference document: %w", err)
	}
	return reference, nil
}

// merge joins live availability and reference metadata by model name.
// Active models missing from the reference get a minimal entry; reference
// models with no active workers are reported with zero counts.
func merge(actives []horde.ActiveModel, reference map[string]horde.ModelReferenceEntry) []domain.ModelDetails {
	merged := lo.Map(actives, func(am horde.ActiveModel, _ int) domain.ModelDetails {
		details := domain.ModelDetails{
			Name:        am.Name,
			WorkerCount: am.Count,
			Performance: am.Performance,
			Queued:      am.Queued,
			Jobs:        am.Jobs,
			ETA:         am.ETA,
		}
		if ref, ok := reference[am.Name]; ok {
			applyReference(&details, ref)
		}
		return details
	})

	activeNames := lo.SliceToMap(actives, func(am horde.ActiveModel) (string, struct{}) {
		return am.Name, struct{}{}
	})
	for name, ref := range reference {
		if _, ok := activeNames[name]; ok {
			continue
		}
		details := domain.ModelDetails{Name: name}
		applyReference(&details, ref)
		merged = append(merged, details)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].WorkerCount != merged[j].WorkerCount {
			return merged[i].WorkerCount > merged[j].WorkerCount
		}
		return merged[i].Name < merged[j].Name
	})
	return merged
}

func applyReference(details *domain.ModelDetails, ref horde.ModelReferenceEntry) {
	details.Description = ref.Description
	details.Baseline = ref.Baseline
	details.Version = ref.Version
	details.Style = ref.Style
	details.Homepage = ref.Homepage
	details.Inpainting = ref.Inpainting
	details.NSFW = ref.NSFW
	details.Trigger = ref.Trigger
	details.Showcases = ref.Showcases
}
