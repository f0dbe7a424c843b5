package memory

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
sectors:
  - { id: "1", name: Directorate, supervisor_id: u-director }
  - { id: "3", name: IT, parent_id: "1", supervisor_id: u-2 }
  - { id: "5", name: Infrastructure, parent_id: "3" }
users:
  - { id: u-director, name: Director, role: supervisor, sector_id: "1", department: Board }
  - { id: u-2, name: Maria, role: supervisor, sector_id: "3", department: IT }
  - { id: u-9, name: Ana, role: employee, sector_id: "5", department: IT }
  - { id: u-old, name: Old, role: hr, department: HR, inactive: true }
`

func TestSeed_Apply(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	users := NewUserRepository()
	sectors := NewSectorRepository()
	seed.Apply(users, sectors)

	s5, err := sectors.GetByID(context.Background(), "5")
	require.NoError(t, err)
	require.NotNil(t, s5.ParentID)
	assert.Equal(t, "3", *s5.ParentID)
	assert.Nil(t, s5.SupervisorID)

	ana, err := users.GetByID(context.Background(), "u-9")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, ana.Role)
	assert.True(t, ana.IsActive)

	hr, err := users.ListByRole(context.Background(), user.RoleHR)
	require.NoError(t, err)
	assert.Empty(t, hr)
}

func TestParseSeed_UnknownRole(t *testing.T) {
	_, err := ParseSeed([]byte("users:\n  - { id: x, role: owner }\n"))
	assert.ErrorContains(t, err, "unknown role")
}
