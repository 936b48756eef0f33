package redisstore

import "github.com/redis/go-redis/v9"

const insertRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
local ttl = tonumber(ARGV[6])
redis.call("HSET", KEYS[1], "id", ARGV[1], "sub", ARGV[2], "exp", ARGV[3], "created", ARGV[4], "revoked", "0")
redis.call("PEXPIRE", KEYS[1], ttl)
redis.call("SET", KEYS[2], ARGV[5], "PX", ttl)
redis.call("SADD", KEYS[3], ARGV[5])
local current = redis.call("PTTL", KEYS[3])
if current < ttl then
  redis.call("PEXPIRE", KEYS[3], ttl)
end
return 1
`

var insertRefreshLua = redis.NewScript(insertRefreshScript)

// Returns {0} when nothing active matched, else {1, id, sub, exp, created}.
const consumeRefreshScript = `
local fields = redis.call("HMGET", KEYS[1], "id", "sub", "exp", "created", "revoked")
if not fields[1] then
  return {0}
end
if fields[5] == "1" then
  return {0}
end
if tonumber(fields[3]) <= tonumber(ARGV[1]) then
  return {0}
end
redis.call("HSET", KEYS[1], "revoked", "1")
return {1, fields[1], fields[2], fields[3], fields[4]}
`

var consumeRefreshLua = redis.NewScript(consumeRefreshScript)

const markRevokedScript = `
local hash = redis.call("GET", KEYS[1])
if not hash then
  return 0
end
local key = ARGV[1] .. hash
local revoked = redis.call("HGET", key, "revoked")
if not revoked or revoked == "1" then
  return 0
end
redis.call("HSET", key, "revoked", "1")
return 1
`

var markRevokedLua = redis.NewScript(markRevokedScript)

const markAllRevokedScript = `
local hashes = redis.call("SMEMBERS", KEYS[1])
local flipped = 0
for _, hash in ipairs(hashes) do
  local key = ARGV[1] .. hash
  local revoked = redis.call("HGET", key, "revoked")
  if not revoked then
    redis.call("SREM", KEYS[1], hash)
  elseif revoked ~= "1" then
    redis.call("HSET", key, "revoked", "1")
    flipped = flipped + 1
  end
end
return flipped
`

var markAllRevokedLua = redis.NewScript(markAllRevokedScript)
