// Package config loads simtoken's YAML configuration.
//
// A file is decoded over Default(), so it only needs the keys it changes.
// Unknown keys are rejected. Validate checks field tags with
// go-playground/validator and then the cross-field rules tags cannot
// express.
//
//	cfg, err := config.Load("simtoken.yaml")
//	if err != nil {
//		return err
//	}
//	logger := cfg.Log.Logger()
package config
