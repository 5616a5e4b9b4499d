package client

// RPC method names, one constant per JSON-RPC method the server exposes.
// Named the way the teacher names its REST endpoint constants, adapted to
// RPC method strings since this wire protocol has no path segments.
const (
	METHOD_VERSION = "version"

	METHOD_AUTH_LOGIN        = "auth.login"
	METHOD_AUTH_REFRESH      = "auth.refresh"
	METHOD_AUTH_VERIFY_TOKEN = "auth.verify_token"

	METHOD_ORG_GET = "org.get"

	METHOD_PROJECT_LIST = "project.list"
	METHOD_PROJECT_GET  = "project.get"

	METHOD_DATASET_LIST = "dataset.list"
	METHOD_DATASET_GET  = "dataset.get"

	METHOD_LABEL_LIST   = "label.list"
	METHOD_LABEL_ADD2   = "label.add2"
	METHOD_LABEL_DEL    = "label.del"
	METHOD_LABEL_UPDATE = "label.update"

	METHOD_ANNSET_LIST = "annset.list"
	METHOD_ANNSET_GET  = "annset.get"

	METHOD_SAMPLES_COUNT     = "samples.count"
	METHOD_SAMPLES_LIST      = "samples.list"
	METHOD_SAMPLES_POPULATE2 = "samples.populate2"

	METHOD_SNAPSHOTS_LIST                         = "snapshots.list"
	METHOD_SNAPSHOTS_GET                          = "snapshots.get"
	METHOD_SNAPSHOTS_CREATE_UPLOAD_URL_MULTIPART  = "snapshots.create_upload_url_multipart"
	METHOD_SNAPSHOTS_COMPLETE_MULTIPART_UPLOAD    = "snapshots.complete_multipart_upload"
	METHOD_SNAPSHOTS_UPDATE                       = "snapshots.update"
	METHOD_SNAPSHOTS_CREATE_DOWNLOAD_URL          = "snapshots.create_download_url"
	METHOD_SNAPSHOTS_RESTORE                      = "snapshots.restore"

	METHOD_TRAINER_LIST2            = "trainer.list2"
	METHOD_TRAINER_GET              = "trainer.get"
	METHOD_TRAINER_SESSION_LIST     = "trainer.session.list"
	METHOD_TRAINER_SESSION_GET      = "trainer.session.get"
	METHOD_TRAINER_SESSION_METRICS  = "trainer.session.metrics"
	METHOD_TRAINER_GET_ARTIFACTS    = "trainer.get_artifacts"
	METHOD_TRAINER_DOWNLOAD_FILE    = "trainer.download.file"
	METHOD_TRAINER_UPLOAD_FILES     = "trainer.upload.files"

	METHOD_VALIDATE_SESSION_LIST    = "validate.session.list"
	METHOD_VALIDATE_SESSION_GET     = "validate.session.get"
	METHOD_VALIDATE_SESSION_METRICS = "validate.session.metrics"
	METHOD_VALIDATE_UPLOAD_FILES    = "validate.upload.files"

	METHOD_TASK_LIST = "task.list"
	METHOD_TASK_GET  = "task.get"

	METHOD_DOCKER_UPDATE_STATUS = "docker.update.status"

	METHOD_STATUS_STAGES = "status.stages"
	METHOD_STATUS_UPDATE = "status.update"
)
