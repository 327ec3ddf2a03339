// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policyfile

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// schemaJSON constrains policy files before decoding. Unknown keys and
// variant names are rejected here with field-level messages, and the
// revocation list only admits the flag names revoke.ParseFlags accepts.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "TLS server trust policy file",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "default": { "$ref": "#/definitions/policy" },
    "hosts": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/policy" }
    }
  },
  "definitions": {
    "policy": {
      "type": "object",
      "additionalProperties": false,
      "required": ["variant"],
      "properties": {
        "variant": {
          "type": "string",
          "enum": ["default", "revoked", "pinned-certs", "pinned-keys", "disabled"]
        },
        "validate_chain": { "type": "boolean" },
        "validate_host": { "type": "boolean" },
        "bundle": { "type": "string", "minLength": 1 },
        "revocation": {
          "type": "array",
          "items": { "type": "string", "enum": ["ocsp", "crl", "require", "any"] },
          "minItems": 1
        }
      }
    }
  }
}`

// validateSchema checks a JSON document against the embedded policy schema
// and folds all violations into one error.
func validateSchema(jsonData []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("policyfile: running schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var descriptions []string
	for _, violation := range result.Errors() {
		descriptions = append(descriptions, violation.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(descriptions, "; "))
}
