package config

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/func/agentcore/agent"
	"github.com/pkg/errors"
)

// DefaultRoleFile contains the ARN of the runtime execution role.
const DefaultRoleFile = "role_arn.txt"

// ReadRole reads the execution role ARN from a file. Surrounding whitespace
// is ignored.
//
// A missing or empty file is a precondition failure: the role must be
// provisioned before deploying.
func ReadRole(path string) (string, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &agent.Error{
				Kind: agent.Precondition,
				Op:   "read role",
				Name: path,
				Err:  errors.New("file not found, provision the execution role first"),
			}
		}
		return "", &agent.Error{Kind: agent.Other, Op: "read role", Name: path, Err: err}
	}
	role := strings.TrimSpace(string(data))
	if role == "" {
		return "", &agent.Error{
			Kind: agent.Precondition,
			Op:   "read role",
			Name: path,
			Err:  errors.New("file is empty"),
		}
	}
	return role, nil
}
