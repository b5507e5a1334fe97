package sqlinline

const QInsertPromptEvent = `--sql a7de0d10-6fe8-40b9-84cb-d9ba9a199ff7
insert into prompt_events (prompt_id, level, message, context, created_at)
values ($1::uuid, $2::text, $3::text, $4::jsonb, $5::timestamptz);
`

const QListRecentPromptEvents = `--sql a497dc17-cd26-42bf-b799-84c69581d862
select id, prompt_id::text, level, message, context, created_at
from prompt_events
where prompt_id = $1::uuid
order by created_at desc, id desc
limit $2::int;
`

const QListRecentPromptEventsForMany = `--sql f239469e-d48c-46a0-a427-4d83f7488f91
select id, prompt_id, level, message, context, created_at
from (
    select id, prompt_id::text as prompt_id, level, message, context, created_at,
           row_number() over (partition by prompt_id order by created_at desc, id desc) as rn
    from prompt_events
    where prompt_id = any($1::uuid[])
) ranked
where rn <= $2::int
order by prompt_id, created_at desc, id desc;
`
