package dig_container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/cutm/results/apps/api/echo"
	"github.com/cutm/results/core"
	"github.com/cutm/results/core/result"
	testutil "github.com/cutm/results/tests"
)

func TestNewRecordRepository(t *testing.T) {
	conf := testutil.NewConfig()
	param := DBLoggerParam{Logger: testutil.NewLogger()}

	repo, closeFn, err := newRecordRepository(conf, param)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.NoError(t, closeFn())

	conf.Database.Engine = "mongo"
	_, _, err = newRecordRepository(conf, param)
	assert.EqualError(t, err, `unknown database engine "mongo"`)
}

func TestContainer_resolvesServer(t *testing.T) {
	if core.NewConfig().Database.Engine != core.EngineMemory {
		t.Skip("database engine overridden by the environment")
	}

	c := New()
	err := c.Invoke(func(server *echoapi.Server, svc *result.Service) {
		assert.NotNil(t, server)
		recs, err := svc.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
	require.NoError(t, err)
}
