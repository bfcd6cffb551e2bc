package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// isProductionLike reports whether strict configuration rules apply
func isProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
