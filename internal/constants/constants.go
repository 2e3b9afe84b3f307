package constants

// TableName is the logical table name embedded in every output key.
const TableName = "data_indexer"

// URLScheme prefixes the fileUrl of every indexed object.
const URLScheme = "s3"

// DefaultRegion is used when neither the config file, the environment nor a flag sets one.
const DefaultRegion = "eu-central-1"

// ListPageSize is the MaxKeys value sent with every ListObjectsV2 request (the S3 maximum).
const ListPageSize = 1000

// DefaultWorkers bounds the number of goroutines deriving file records.
const DefaultWorkers = 8
