package common

import (
	"time"
)

const DefaultClientTimeout = time.Minute

// How long to wait for the cluster to report its workers.
const DefaultWaitForWorkersTimeout = 5 * time.Minute

// Prefix for environment overrides of configuration values, e.g. SATDEMO_CLUSTER_ADDR.
const EnvPrefix = "SATDEMO"
