package server

// HTMLPage 首页，前端图表由静态资源另行提供
const HTMLPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Electricity Usage Forecast</title>
</head>
<body>
  <h1>Electricity Usage Forecast</h1>
  <ul>
    <li><a href="/get_data">GET /get_data</a> weekly usage rows</li>
    <li><a href="/predict">GET /predict</a> history and forecast per user</li>
    <li><a href="/model">GET /model</a> fitted VARMA parameters and residual checks</li>
    <li>POST /usage JSON array of usage rows</li>
  </ul>
</body>
</html>
`
