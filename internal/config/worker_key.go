package config

type WorkerKeyStruct struct {
	NotificationQueue string
}

var WorkerKey = &WorkerKeyStruct{
	NotificationQueue: "persist_notifications_queue",
}
