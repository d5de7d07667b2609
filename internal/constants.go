package internal

const COOKIE_ID_TOKEN_NAME = "selecao-id-token"
