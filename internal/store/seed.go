package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"hours-ledger/internal/model"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML layout of a directory fixture:
//
//	users:
//	  - {id: m1, name: Mia, role: manager}
//	  - {id: alice, name: Alice, role: employee, manager_id: m1}
//	projects:
//	  - {id: P1, name: Apollo}
type Seed struct {
	Users    []SeedUser      `yaml:"users"`
	Projects []model.Project `yaml:"projects"`
}

// SeedUser defaults Active to true when omitted.
type SeedUser struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Role      model.Role `yaml:"role"`
	ManagerID *string    `yaml:"manager_id"`
	Active    *bool      `yaml:"active"`
}

func (s SeedUser) User() model.User {
	u := model.User{ID: s.ID, Name: s.Name, Role: s.Role, ManagerID: s.ManagerID, Active: true}
	if s.Active != nil {
		u.Active = *s.Active
	}
	return u
}

func DecodeSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("DecodeSeed: %w: %v", model.ErrInvalidInput, err)
	}
	for i := range s.Projects {
		if s.Projects[i].Status == "" {
			s.Projects[i].Status = model.ProjectActive
		}
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("DecodeSeed: %w", err)
	}
	return &s, nil
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSeedFile: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

func (s *Seed) validate() error {
	users := make(map[string]model.User, len(s.Users))
	for _, su := range s.Users {
		if su.ID == "" {
			return fmt.Errorf("%w: user without id", model.ErrInvalidInput)
		}
		if !su.Role.Valid() {
			return fmt.Errorf("%w: user %s has role %q", model.ErrInvalidInput, su.ID, su.Role)
		}
		if _, dup := users[su.ID]; dup {
			return fmt.Errorf("%w: duplicate user %s", model.ErrInvalidInput, su.ID)
		}
		users[su.ID] = su.User()
	}
	for _, u := range users {
		if u.ManagerID == nil {
			continue
		}
		var mgr *model.User
		if m, ok := users[*u.ManagerID]; ok {
			mgr = &m
		}
		if err := u.CheckManager(mgr); err != nil {
			return err
		}
	}
	for _, p := range s.Projects {
		if p.ID == "" {
			return fmt.Errorf("%w: project without id", model.ErrInvalidInput)
		}
		if p.Status != model.ProjectActive && p.Status != model.ProjectArchived {
			return fmt.Errorf("%w: project %s has status %q", model.ErrInvalidInput, p.ID, p.Status)
		}
	}
	return nil
}

// Apply upserts the seed into dst, managers before their reports.
func (s *Seed) Apply(ctx context.Context, dst Seeder) error {
	users := make([]model.User, 0, len(s.Users))
	for _, su := range s.Users {
		users = append(users, su.User())
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].ManagerID == nil && users[j].ManagerID != nil
	})
	for _, u := range users {
		if err := dst.PutUser(ctx, u); err != nil {
			return fmt.Errorf("Seed.Apply: %w", err)
		}
	}
	for _, p := range s.Projects {
		if err := dst.PutProject(ctx, p); err != nil {
			return fmt.Errorf("Seed.Apply: %w", err)
		}
	}
	return nil
}
