package record

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/registry"
)

// Payload structs and the registry must agree on field names and optionality.
func TestPayloadStructsMatchRegistry(t *testing.T) {
	reg := registry.Default()

	structs := map[ir.Kind]any{
		ir.KindProfile:           Profile{},
		ir.KindSecret:            Secret{},
		ir.KindServicePermission: ServicePermission{},
		ir.KindLoginActivity:     LoginActivity{},
		ir.KindDashboardActivity: DashboardActivity{},
		ir.KindAppActivity:       AppActivity{},
		ir.KindPrivacySettings:   PrivacySettings{},
		ir.KindAnalyticsAlias:    AnalyticsAlias{},
		ir.KindSession:           Session{},
	}
	require.Len(t, structs, len(reg.Kinds()))

	for kind, v := range structs {
		t.Run(string(kind), func(t *testing.T) {
			spec, err := reg.Lookup(kind)
			require.NoError(t, err)

			typ := reflect.TypeOf(v)
			require.Equal(t, len(spec.Fields), typ.NumField())

			for i := 0; i < typ.NumField(); i++ {
				sf := typ.Field(i)
				name, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")

				field, ok := spec.Field(name)
				require.True(t, ok, "field %s is not declared", name)
				assert.Equal(t, field.Optional, opts == "omitempty", "optionality of %s", name)
				assert.Equal(t, field.Optional, sf.Type.Kind() == reflect.Pointer, "pointer-ness of %s", name)
			}
		})
	}
}

func TestDefaultPrivacySettings(t *testing.T) {
	s := DefaultPrivacySettings(42)
	assert.True(t, s.TrackIPAddress)
	assert.True(t, s.TrackUserAgent)
	assert.Equal(t, int64(90), s.ActivityLogRetentionDays)
	assert.Nil(t, s.AutoAnonymizeAfterDays)
	assert.Equal(t, int64(42), s.CreatedAt)
	assert.Equal(t, int64(42), s.UpdatedAt)
}

func TestPtr(t *testing.T) {
	p := Ptr(int64(7))
	require.NotNil(t, p)
	assert.Equal(t, int64(7), *p)
}
