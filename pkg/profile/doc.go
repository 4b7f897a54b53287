// Package profile provides read access to authorization records: the role
// and tenant associated with an authenticated identity.
//
// A Profile carries exactly one of two roles. platform_operator has
// cross-tenant capability and no tenant; tenant_admin is confined to exactly
// one tenant. Profiles are written by the external provisioning service;
// this package only reads them.
//
// PostgresStore queries the profiles table; CachedStore layers a Redis cache
// with TTL in front of any Store. Zero rows surface as ErrNotFound so that
// callers can distinguish "not provisioned yet" from query failure.
//
// Schema:
//
//	CREATE TABLE profiles (
//	    identity   TEXT PRIMARY KEY,
//	    role       TEXT NOT NULL CHECK (role IN ('platform_operator', 'tenant_admin')),
//	    tenant     TEXT,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    CHECK ((role = 'tenant_admin') = (tenant IS NOT NULL))
//	);
package profile
