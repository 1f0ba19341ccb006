package web

var widgetHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Esita</title>
<style>
:root{
  --bg:#0e1220;--panel:#151a2c;--border:#262d45;--accent:#2dd4bf;
  --accent-dark:#14b8a6;--user-bg:linear-gradient(135deg,#2dd4bf,#0ea5e9);
  --assistant-bg:#1b2138;--text:#e7eaf3;--muted:#8a90a6;--code-bg:#0a0d18;
  --error:#f87171;--ok:#34d399;
}
*{box-sizing:border-box;margin:0;padding:0}
html,body{height:100%}
body{
  font-family:system-ui,-apple-system,'Segoe UI',sans-serif;
  background:var(--bg);color:var(--text);
  display:flex;flex-direction:column;overflow:hidden;
}
#header{
  padding:14px 20px;background:var(--panel);border-bottom:1px solid var(--border);
  display:flex;align-items:center;gap:12px;flex-shrink:0;
}
#header h1{font-size:16px;font-weight:600}
#header .subtitle{font-size:12px;color:var(--muted)}
.status-dot{
  margin-left:auto;width:9px;height:9px;border-radius:50%;
  background:var(--muted);transition:background .3s;
}
.status-dot.online{background:var(--ok);box-shadow:0 0 8px rgba(52,211,153,.4)}
.status-dot.offline{background:var(--error)}
#messages{
  flex:1;overflow-y:auto;padding:20px;display:flex;flex-direction:column;gap:14px;
  scroll-behavior:smooth;
}
.msg{max-width:74%;padding:11px 15px;border-radius:14px;font-size:14px;line-height:1.6;word-wrap:break-word}
.msg.user{align-self:flex-end;background:var(--user-bg);color:#04211d;border-bottom-right-radius:5px}
.msg.assistant{align-self:flex-start;background:var(--assistant-bg);border:1px solid var(--border);border-bottom-left-radius:5px}
.msg.assistant pre{background:var(--code-bg);padding:12px;border-radius:8px;overflow-x:auto;margin:8px 0;border:1px solid var(--border)}
.msg.assistant code{background:var(--code-bg);padding:2px 5px;border-radius:4px;font-size:13px}
.msg.assistant pre code{padding:0;background:none}
#typing{padding:0 20px;min-height:24px;font-size:13px;color:var(--muted);flex-shrink:0}
#input-area{padding:14px 20px 18px;background:var(--panel);border-top:1px solid var(--border);flex-shrink:0}
.input-wrapper{display:flex;gap:10px;background:var(--bg);border:1px solid var(--border);border-radius:12px;padding:4px 4px 4px 14px}
.input-wrapper:focus-within{border-color:var(--accent)}
#input{flex:1;padding:9px 0;border:none;background:transparent;color:var(--text);font-size:14px;outline:none;font-family:inherit}
#send{
  width:38px;height:38px;background:var(--accent);color:#04211d;border:none;border-radius:9px;
  cursor:pointer;font-weight:700;
}
#send:hover{background:var(--accent-dark)}
#send:disabled{opacity:.35;cursor:not-allowed}
</style>
</head>
<body>
<div id="header">
  <div><h1>Esita</h1><span class="subtitle">AI Assistant</span></div>
  <div id="status" class="status-dot" title="Connectivity"></div>
</div>
<div id="messages"></div>
<div id="typing"></div>
<div id="input-area">
  <div class="input-wrapper">
    <input id="input" type="text" placeholder="Message Esita..." aria-label="Chat message input">
    <button id="send" aria-label="Send message">&#10148;</button>
  </div>
</div>
<script>
const msgsEl=document.getElementById("messages"),
      input=document.getElementById("input"),
      btn=document.getElementById("send"),
      typingEl=document.getElementById("typing"),
      statusEl=document.getElementById("status");
let busy=false;
function esc(s){return s.replace(/&/g,"&amp;").replace(/</g,"&lt;").replace(/>/g,"&gt;")}
function addMsg(m){
  const div=document.createElement("div");
  div.className="msg "+m.role;
  // Assistant markdown is rendered server-side; user text is escaped.
  div.innerHTML=m.html?m.html:esc(m.text);
  msgsEl.appendChild(div);
  msgsEl.scrollTop=msgsEl.scrollHeight;
}
function setStatus(online){
  statusEl.className="status-dot "+(online?"online":"offline");
}
async function refresh(){
  const r=await fetch("/chat/poll");
  if(!r.ok)return;
  const msgs=await r.json();
  msgsEl.innerHTML="";
  msgs.forEach(addMsg);
}
async function refreshStatus(){
  try{
    const r=await fetch("/chat/status");
    if(!r.ok)return;
    const s=await r.json();
    setStatus(s.online);
  }catch(e){setStatus(false)}
}
async function send(){
  const m=input.value.trim();
  if(!m||busy)return;
  busy=true;btn.disabled=true;input.value="";
  addMsg({role:"user",text:m});
  typingEl.textContent="Esita is thinking...";
  try{
    const r=await fetch("/chat/send",{
      method:"POST",
      headers:{"Content-Type":"application/json"},
      body:JSON.stringify({message:m})
    });
    if(r.ok){
      const d=await r.json();
      if(d.accepted){setStatus(d.online)}
    }
  }catch(e){setStatus(false)}
  await refresh();
  typingEl.textContent="";
  busy=false;btn.disabled=false;input.focus();
}
btn.onclick=send;
input.onkeydown=e=>{if(e.key==="Enter"){e.preventDefault();send()}};
refresh();refreshStatus();
setInterval(refreshStatus,30000);
input.focus();
</script>
</body>
</html>`
