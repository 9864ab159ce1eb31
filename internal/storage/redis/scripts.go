package redis

const (
	// applyBatchScript sets and deletes hash fields in one atomic step
	applyBatchScript = `
local hash = KEYS[1]            -- kquota:settings

local nset = tonumber(ARGV[1])  -- number of field/value pairs that follow
local first_delete = 2 + nset * 2

for i = 2, first_delete - 1, 2 do
  redis.call('HSET', hash, ARGV[i], ARGV[i + 1])
end

for i = first_delete, #ARGV do
  redis.call('HDEL', hash, ARGV[i])
end

return 'OK'
`
)
