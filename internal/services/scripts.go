package services

// The coordination store holds all per-venue state; every mutation below
// runs as one EVAL so concurrent callers on the same venue serialize inside
// Redis. A script either applies all of its writes or rejects with a status
// string and touches nothing.

// addRequestScript performs the whole AddRequest unit: dedup check, balance
// check, debit, entry hash write, lane append, dedup registration, and the
// auto-start pop when the venue is idle.
//
// KEYS: 1 dedup set, 2 points balance, 3 priority lane, 4 standard lane,
// 5 entry hash, 6 now-playing.
// ARGV: 1 songID, 2 cost, 3 entryID, 4 lane, 5 tableID, 6 venueID,
// 7 requestedAt, 8 entry key prefix.
// Returns {status, balance, startedEntryID}.
const addRequestScript = `
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  return {'duplicate_song', 0, ''}
end
local bal = tonumber(redis.call('GET', KEYS[2]) or '0')
local cost = tonumber(ARGV[2])
if bal < cost then
  return {'insufficient_points', bal, ''}
end
bal = bal - cost
redis.call('SET', KEYS[2], bal)
redis.call('SADD', KEYS[1], ARGV[1])
redis.call('HSET', KEYS[5],
  'id', ARGV[3],
  'venue_id', ARGV[6],
  'song_id', ARGV[1],
  'lane', ARGV[4],
  'table_id', ARGV[5],
  'points_charged', ARGV[2],
  'status', 'pending',
  'requested_at', ARGV[7])
local laneKey = KEYS[4]
if ARGV[4] == 'priority' then
  laneKey = KEYS[3]
end
redis.call('RPUSH', laneKey, ARGV[3])
local started = ''
if redis.call('EXISTS', KEYS[6]) == 0 then
  local nextID = redis.call('LPOP', KEYS[3])
  if not nextID then
    nextID = redis.call('LPOP', KEYS[4])
  end
  if nextID then
    redis.call('SET', KEYS[6], nextID)
    redis.call('HSET', ARGV[8]..nextID, 'status', 'playing')
    started = nextID
  end
end
return {'ok', bal, started}
`

// removeRequestScript deletes a pending entry: lane removal, dedup release,
// refund, and status write together. The caller resolves the entry first;
// the table check here catches the entry changing hands between that read
// and this script.
//
// KEYS: 1 entry hash, 2 dedup set, 3 points balance, 4 priority lane,
// 5 standard lane.
// ARGV: 1 entryID, 2 expected tableID.
// Returns {status, balance, refund}.
const removeRequestScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {'not_found', 0, 0}
end
if redis.call('HGET', KEYS[1], 'status') ~= 'pending' then
  return {'invalid_state', 0, 0}
end
if redis.call('HGET', KEYS[1], 'table_id') ~= ARGV[2] then
  return {'conflict', 0, 0}
end
local laneKey = KEYS[5]
if redis.call('HGET', KEYS[1], 'lane') == 'priority' then
  laneKey = KEYS[4]
end
redis.call('LREM', laneKey, 1, ARGV[1])
redis.call('SREM', KEYS[2], redis.call('HGET', KEYS[1], 'song_id'))
local refund = tonumber(redis.call('HGET', KEYS[1], 'points_charged'))
local bal = redis.call('INCRBY', KEYS[3], refund)
redis.call('HSET', KEYS[1], 'status', 'removed')
redis.call('EXPIRE', KEYS[1], 86400)
return {'ok', bal, refund}
`

// advancePlaybackScript terminalizes the now-playing entry (skipped or
// completed), releases its dedup slot, and pops the next entry, priority
// lane first. When no entry is playing it reports idle and writes nothing.
//
// KEYS: 1 now-playing, 2 priority lane, 3 standard lane, 4 dedup set.
// ARGV: 1 terminal status, 2 entry key prefix.
// Returns {status, endedEntryID, startedEntryID}.
const advancePlaybackScript = `
local cur = redis.call('GET', KEYS[1])
if not cur then
  return {'idle', '', ''}
end
local curKey = ARGV[2]..cur
redis.call('SREM', KEYS[4], redis.call('HGET', curKey, 'song_id'))
redis.call('HSET', curKey, 'status', ARGV[1])
redis.call('EXPIRE', curKey, 86400)
local nextID = redis.call('LPOP', KEYS[2])
if not nextID then
  nextID = redis.call('LPOP', KEYS[3])
end
if nextID then
  redis.call('SET', KEYS[1], nextID)
  redis.call('HSET', ARGV[2]..nextID, 'status', 'playing')
  return {'ok', cur, nextID}
end
redis.call('DEL', KEYS[1])
return {'ok', cur, ''}
`

// startPlaybackScript pops the next eligible entry when the venue is idle.
// A no-op when something is already playing or both lanes are empty.
//
// KEYS: 1 now-playing, 2 priority lane, 3 standard lane.
// ARGV: 1 entry key prefix.
// Returns {status, entryID}.
const startPlaybackScript = `
local cur = redis.call('GET', KEYS[1])
if cur then
  return {'already_playing', cur}
end
local nextID = redis.call('LPOP', KEYS[2])
if not nextID then
  nextID = redis.call('LPOP', KEYS[3])
end
if not nextID then
  return {'empty', ''}
end
redis.call('SET', KEYS[1], nextID)
redis.call('HSET', ARGV[1]..nextID, 'status', 'playing')
return {'ok', nextID}
`

// debitScript checks and debits in one step so the balance can never go
// negative between check and write.
//
// KEYS: 1 points balance. ARGV: 1 amount.
// Returns {status, balance}.
const debitScript = `
local bal = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
if bal < amount then
  return {'insufficient_points', bal}
end
bal = bal - amount
redis.call('SET', KEYS[1], bal)
return {'ok', bal}
`
