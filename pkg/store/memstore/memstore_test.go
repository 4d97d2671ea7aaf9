package memstore

import (
    "testing"

    "github.com/stretchr/testify/require"

    "meshbbs/pkg/codec"
    "meshbbs/pkg/memkv"
    "meshbbs/pkg/store"
    "meshbbs/pkg/store/storetest"
)

func TestBehaviourCBOR(t *testing.T) {
    storetest.Run(t, func(t *testing.T) store.Store {
        s, err := New(nil, nil)
        require.NoError(t, err)
        return s
    })
}

func TestBehaviourJSON(t *testing.T) {
    storetest.Run(t, func(t *testing.T) store.Store {
        s, err := New(memkv.New(memkv.Options{Shards: 8}), codec.JSON())
        require.NoError(t, err)
        return s
    })
}

func TestSetRole(t *testing.T) {
    s, err := New(nil, nil)
    require.NoError(t, err)
    require.NoError(t, s.Register(t.Context(), "Eve", "pw"))
    require.NoError(t, s.SetRole(t.Context(), "eve", "admin"))
    role, err := s.Role(t.Context(), "EVE")
    require.NoError(t, err)
    require.Equal(t, "admin", role)
    ok, err := s.Authenticate(t.Context(), "eve", "pw")
    require.NoError(t, err)
    require.True(t, ok, "role change must keep the password")
}
