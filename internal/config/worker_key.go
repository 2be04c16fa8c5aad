package config

type WorkerKeyStruct struct {
	MirrorResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	MirrorResultsQueue: "mirror_results_queue",
}
