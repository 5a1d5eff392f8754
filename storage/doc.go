// Package storage provides a pluggable blob store for pipeline payloads.
//
// Backends register themselves through RegisterFactory (see the local and
// s3 subpackages) and are selected by Config.Provider. PayloadStore layers
// the pipeline's addressing scheme on top: raw API pages under
// raw/<pipeline>/<run-date>/ and rejected records under
// invalid/<pipeline>/<run-date>/.
package storage
