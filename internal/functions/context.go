package functions

import (
	"maps"
	"net/http"

	"github.com/watzon/alyx-executor/internal/sdk"
)

// BuildContext turns the wire context of a request into the handler context.
// It never fails: missing fields fall back to zero values and the database
// façade does not check its URL or token until it issues a request.
func BuildContext(rc *FunctionContext, client *http.Client) *sdk.Context {
	if rc == nil {
		rc = &FunctionContext{}
	}

	var auth *sdk.AuthContext
	if rc.Auth != nil {
		a := *rc.Auth
		auth = &a
	}

	env := make(map[string]string, len(rc.Env))
	maps.Copy(env, rc.Env)

	db := sdk.NewDB(rc.AlyxURL, rc.InternalToken, client)
	return sdk.NewContext(auth, env, db)
}
