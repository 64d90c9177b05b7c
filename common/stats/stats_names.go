package stats

/*
This file defines all the metrics being collected. As new metrics are added please follow this pattern.
*/

const (
	/************************* Timeseries sizing metrics **************************/
	/*
		time spent materializing and measuring the example partition
	*/
	TimeseriesMeasureLatency_ms = "timeseriesMeasureLatency_ms"

	/*
		measured in-memory bytes of the most recent example partition
	*/
	TimeseriesPartitionBytesGauge = "timeseriesPartitionBytesGauge"

	/*
		partition count of the most recent sized timeseries
	*/
	TimeseriesPartitionsGauge = "timeseriesPartitionsGauge"

	/*
		number of timeseries sizing requests that were infeasible
	*/
	TimeseriesInfeasibleCounter = "timeseriesInfeasibleCounter"

	/************************* Shape solver metrics **************************/
	/*
		number of shapes solved
	*/
	ShapeSolvedCounter = "shapeSolvedCounter"

	/*
		relative error of the most recently solved shape
	*/
	ShapeRelErrorGaugeFloat = "shapeRelErrorGaugeFloat"

	/*
		number of solved shapes rejected for exceeding the error tolerance
	*/
	ShapeToleranceExceededCounter = "shapeToleranceExceededCounter"

	/************************* Cluster metrics **************************/
	/*
		sum of the memory limits of all workers, in bytes
	*/
	ClusterMemoryBytesGauge = "clusterMemoryBytesGauge"

	/*
		number of workers reported by the cluster
	*/
	ClusterNumWorkersGauge = "clusterNumWorkersGauge"

	/*
		time to fetch worker metadata from the cluster
	*/
	ClusterFetchLatency_ms = "clusterFetchLatency_ms"

	/*
		number of failed worker metadata fetches
	*/
	ClusterFetchErrCounter = "clusterFetchErrCounter"

	/************************* Workload plan metrics **************************/
	/*
		number of workloads sized into a plan
	*/
	PlanWorkloadsCounter = "planWorkloadsCounter"

	/*
		time to size every workload of a plan
	*/
	PlanBuildLatency_ms = "planBuildLatency_ms"
)
