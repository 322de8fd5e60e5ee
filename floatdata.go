package argofetch

import (
	"errors"

	"github.com/argofetch/argofetch/cache"
	cachekey "github.com/argofetch/argofetch/pkg/cache-key"
	"github.com/argofetch/argofetch/table"
)

// FloatData returns the merged profile data for the given floats, reading
// each profile through the cache and fetching on miss. maxProfiles caps the
// profiles per float (0 = unbounded); the cap is further constrained by any
// cap encoded in the cache file name. A profile or catalog that cannot be
// fetched is logged and skipped, never aborting the batch.
func (f *Fetcher) FloatData(wmos []string, maxProfiles int) (*table.Table, error) {
	limit := f.effectiveMaxProfiles(maxProfiles)

	dacURLs, err := f.DacURLs(wmos)
	if err != nil {
		return nil, err
	}

	merged := table.New()
	count := 0
	for wmo, catalogURL := range dacURLs {
		count++
		f.log.Info().Msgf("Float %d of %d, wmo = %s", count, len(dacURLs), wmo)
		locators := f.ProfileURLs(catalogURL)
		for i, locator := range locators {
			// the index equal to the limit is still processed
			if i > limit {
				f.log.Info().Msgf("Stopping at max profiles = %d", limit)
				break
			}
			key := cachekey.Normalize(locator)
			var tbl *table.Table
			data, err := f.store.Get(key)
			switch {
			case errors.Is(err, cache.ErrEntryNotFound):
				tbl, err = f.saveProfile(wmo, locator, key, i, len(locators))
				if err != nil {
					return nil, err
				}
			case err != nil:
				return nil, err
			default:
				tbl, err = table.Decode(data)
				if err != nil {
					return nil, err
				}
			}
			merged.Append(tbl)
		}
	}
	return merged, nil
}

// saveProfile fetches, transforms, validates and stores one profile. A
// missing required variable or a multi-profile file degrades to an empty
// memoized entry; the empty entry is permanent and never re-fetched.
func (f *Fetcher) saveProfile(wmo, locator, key string, i, total int) (*table.Table, error) {
	f.log.Info().Msgf("Profile %d of %d from %s", i, total, locator)
	tbl, err := f.profileTable(wmo, locator)
	if err != nil {
		var required *RequiredVariableError
		var multi *MultiProfileError
		if !errors.As(err, &required) && !errors.As(err, &multi) {
			return nil, err
		}
		f.log.Warn().Msg(err.Error())
		tbl = table.New()
	} else if f.oxygenRequired {
		tbl = f.validateOxygen(tbl, locator)
	}

	data, err := tbl.Encode()
	if err != nil {
		return nil, err
	}
	if err := f.store.Put(key, data); err != nil {
		return nil, err
	}
	return tbl, nil
}
