package memory

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML shape of development data for the memory driver.
type Seed struct {
	Sectors []SeedSector `yaml:"sectors"`
	Users   []SeedUser   `yaml:"users"`
}

type SeedSector struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	ParentID     string `yaml:"parent_id"`
	SupervisorID string `yaml:"supervisor_id"`
}

type SeedUser struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Role       string `yaml:"role"`
	SectorID   string `yaml:"sector_id"`
	Department string `yaml:"department"`
	Inactive   bool   `yaml:"inactive"`
}

func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, u := range seed.Users {
		if !user.Role(u.Role).Valid() {
			return Seed{}, fmt.Errorf("seed user %s: unknown role %q", u.ID, u.Role)
		}
	}
	return seed, nil
}

// Apply loads the seed into the given repositories.
func (s Seed) Apply(users *UserRepository, sectors *SectorRepository) {
	for _, sc := range s.Sectors {
		sectors.Put(sector.Sector{
			ID:           sc.ID,
			Name:         sc.Name,
			ParentID:     optional(sc.ParentID),
			SupervisorID: optional(sc.SupervisorID),
		})
	}
	for _, u := range s.Users {
		users.Put(user.User{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Role:       user.Role(u.Role),
			SectorID:   optional(u.SectorID),
			Department: u.Department,
			IsActive:   !u.Inactive,
		})
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
