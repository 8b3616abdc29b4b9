package domain

import "fmt"

// RepositoryIdentity is the globally unique key of a repository: the pair of
// its owning organization (or user) name and its own name. Both fields are
// non-empty and comparisons are case-sensitive, matching the host's own
// namespacing rules.
type RepositoryIdentity struct {
	// Organization is the name of the owning organization or user account.
	Organization string
	// Repository is the repository's own name, unique within Organization.
	Repository string
}

// String renders the identity as "organization/repository" for logging.
func (id RepositoryIdentity) String() string {
	return fmt.Sprintf("%s/%s", id.Organization, id.Repository)
}

// Valid reports whether both identity components are non-empty.
func (id RepositoryIdentity) Valid() bool {
	return id.Organization != "" && id.Repository != ""
}

// RepositoryRecord is a repository discovered during a crawl, along with its
// star count at the time it was first observed. Records are immutable after
// first emission: a later observation of the same identity never updates
// TotalStars.
type RepositoryRecord struct {
	Identity   RepositoryIdentity
	TotalStars int
}
