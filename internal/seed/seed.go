// Package seed generates sample territory data for local development.
package seed

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"SSPCommandCenter/internal/collector"
	"SSPCommandCenter/internal/model"
)

var (
	orgPrefixes = []string{"State of", "City of", "County of", "University of"}
	nameStates  = []string{"OH", "TN", "MI", "GA", "AL", "MS", "MO", "WV"}
	industries  = []string{"Healthcare", "Public Sector", "Transportation", "Education"}
	initiatives = []string{"Modernization", "Data Platform", "DevOps", "AI"}
)

const (
	minAmount   = 150_000
	amountRange = 700_000
	coSellRate  = 0.4
)

// Data is a generated data set.
type Data struct {
	Accounts      []model.Account
	Opportunities []model.Opportunity
}

// Generate creates n accounts with perAccount opportunities each. The same rng seed
// yields the same data, IDs included.
func Generate(rng *rand.Rand, n, perAccount int, now time.Time) (*Data, error) {
	states := model.AllStates()
	d := &Data{
		Accounts:      make([]model.Account, 0, n),
		Opportunities: make([]model.Opportunity, 0, n*perAccount),
	}
	for range n {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("account id: %w", err)
		}
		acct := model.Account{
			ID: id.String(),
			Name: fmt.Sprintf("%s %s Org %d",
				pick(rng, orgPrefixes), pick(rng, nameStates), rng.Intn(900)+100),
			State:     pick(rng, states),
			Industry:  pick(rng, industries),
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.Accounts = append(d.Accounts, acct)

		for range perAccount {
			oid, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, fmt.Errorf("opportunity id: %w", err)
			}
			d.Opportunities = append(d.Opportunities, model.Opportunity{
				ID:        oid.String(),
				AccountID: acct.ID,
				Name:      fmt.Sprintf("%s - %s Initiative", acct.Name, pick(rng, initiatives)),
				Amount:    float64(minAmount + rng.Intn(amountRange)),
				Stage:     pick(rng, model.AllStages()),
				State:     acct.State,
				CoSell:    rng.Float64() > 1-coSellRate,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}
	return d, nil
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// Write stores the data set as indented JSON files in dir, creating it if needed.
func Write(dir string, d *Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, collector.AccountsFile), d.Accounts); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, collector.OpportunitiesFile), d.Opportunities)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
