// Package janitor removes converted files once they outlive their TTL.
package janitor
