package lending

// Config captures the governance-level bootstrap configuration for the
// lending engine, a default AssetPoolParams set, and operational ceilings,
// all checked by Validate. Engine does not read Config: AddAssetPool and
// UpdateAssetPool take their parameters from the caller, and the pool count
// is bounded by the MaxAssetPools constant. Grounded on native/lending/config.go (teacher)'s toml-tagged Config with
// an EnsureDefaults pass, generalized from NHB/ZNHB-specific fee fields to
// this engine's bps-based risk parameters.
type Config struct {
	GovernanceAuthorityHex string `toml:"GovernanceAuthorityHex"`
	MaxAssetPools          int    `toml:"MaxAssetPools"`
	Defaults               AssetPoolParams `toml:"defaults"`
	Oracle                 OracleConfig    `toml:"oracle"`
}

// OracleConfig carries staleness/confidence ceilings (§4.2). EnsureDefaults
// fills them with the compiled-in constants the OracleAdapter enforces; the
// adapter does not read these fields, so a different configured value does
// not change oracle validation.
type OracleConfig struct {
	MaxPriceAgeSeconds int64  `toml:"MaxPriceAgeSeconds"`
	MaxConfidenceBps   uint64 `toml:"MaxConfidenceBps"`
}

// EnsureDefaults fills in zero-valued fields with the protocol's compiled-in
// defaults, mirroring the teacher's EnsureDefaults pass for its own
// Config/BreakerThresholds.
func (c *Config) EnsureDefaults() {
	if c.MaxAssetPools == 0 {
		c.MaxAssetPools = MaxAssetPools
	}
	if c.Oracle.MaxPriceAgeSeconds == 0 {
		c.Oracle.MaxPriceAgeSeconds = maxPriceAgeSeconds
	}
	if c.Oracle.MaxConfidenceBps == 0 {
		c.Oracle.MaxConfidenceBps = maxConfidenceBps
	}
	if c.Defaults.LiquidationThresholdBps == 0 {
		c.Defaults.LiquidationThresholdBps = 8_000
	}
	if c.Defaults.LoanToValueBps == 0 {
		c.Defaults.LoanToValueBps = 7_500
	}
	if c.Defaults.OptimalUtilizationBps == 0 {
		c.Defaults.OptimalUtilizationBps = 8_000
	}
}

// Validate checks the configuration's invariants, returning the same
// sentinel errors AssetPool.ApplyParams would return for an equivalent
// governance-submitted AssetPoolParams.
func (c *Config) Validate() error {
	if c.MaxAssetPools <= 0 || c.MaxAssetPools > MaxAssetPools {
		return ErrMaxAssetsExceeded
	}
	probe := AssetPool{}
	return probe.ApplyParams(c.Defaults)
}
