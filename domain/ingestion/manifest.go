package ingestion

// ArtifactKind enumerates the blobs an ingestion run stores in the object
// store under {provider}/{owner}/{name}/{commit_sha}/{artifact_kind}.
type ArtifactKind string

// ArtifactKind values.
const (
	ArtifactSourceTree ArtifactKind = "source_tree"
	ArtifactGraphData  ArtifactKind = "graph_data"
	ArtifactASTData    ArtifactKind = "ast_data"
	ArtifactManifest   ArtifactKind = "manifest"
)

// Manifest is the small JSON summary stored alongside a commit's artifacts.
type Manifest struct {
	Commit      string `json:"commit"`
	NodesCount  int    `json:"nodes_count"`
	ChunksCount int    `json:"chunks_count"`
	Version     string `json:"version"`
}
